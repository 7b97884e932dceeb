package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/societypro/admin-service/internal/db"
	"github.com/societypro/admin-service/internal/logging"
	"github.com/societypro/admin-service/internal/models"
)

// RegisterSociety handles public society registration. The row starts
// pending; an executive approval provisions the admin account later.
func (h *Handler) RegisterSociety(c *gin.Context) {
	var req models.RegisterSocietyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing required fields", Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	society, err := h.Store.CreateSociety(ctx, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "society": society})
}

// RegisterResident handles public resident self-registration.
func (h *Handler) RegisterResident(c *gin.Context) {
	var req models.RegisterResidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing required fields", Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	request, err := h.Store.CreateResidentRequest(ctx, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "request": request})
}

// RegisterWatchman handles public watchman self-registration.
func (h *Handler) RegisterWatchman(c *gin.Context) {
	var req models.RegisterWatchmanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing required fields", Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	request, err := h.Store.CreateWatchmanRequest(ctx, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "request": request})
}

// ListSocieties returns society registrations for the executive dashboard,
// optionally filtered by ?status=.
func (h *Handler) ListSocieties(c *gin.Context) {
	status := models.SocietyStatus(c.Query("status"))
	switch status {
	case "", models.SocietyPending, models.SocietyApproved, models.SocietyRejected:
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid status filter"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	societies, err := h.Store.ListSocieties(ctx, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"societies": societies})
}

// ListResidentRequests returns resident requests for ?societyId=, optionally
// filtered by ?status=.
func (h *Handler) ListResidentRequests(c *gin.Context) {
	societyID := c.Query("societyId")
	if societyID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing societyId"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	requests, err := h.Store.ListResidentRequests(ctx, societyID, models.RequestStatus(c.Query("status")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ListWatchmanRequests returns watchman requests for ?societyId=, optionally
// filtered by ?status=.
func (h *Handler) ListWatchmanRequests(c *gin.Context) {
	societyID := c.Query("societyId")
	if societyID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing societyId"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	requests, err := h.Store.ListWatchmanRequests(ctx, societyID, models.RequestStatus(c.Query("status")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// notifyApproval sends the credential email and, when a phone number is on
// file, an SMS. Both are best effort: failures are logged and never roll
// back the approval. Approved-but-unnotified is a legal terminal state.
func (h *Handler) notifyApproval(ctx context.Context, email, name, tempPass, phone string) bool {
	emailSent := false
	if h.Email != nil {
		if _, err := h.Email.SendCredentialEmail(ctx, email, name, tempPass); err != nil {
			logging.LogKV("error", "credential email failed after approval", map[string]interface{}{
				"email": email,
				"error": err.Error(),
			})
		} else {
			emailSent = true
		}
	}

	if h.SMS != nil && phone != "" {
		msg := fmt.Sprintf("SocietyPro: your account for %s has been approved. Login credentials were sent to %s.", name, email)
		if err := h.SMS.SendSMS(ctx, phone, msg); err != nil {
			logging.LogKV("error", "approval SMS failed", map[string]interface{}{
				"phone": phone,
				"error": err.Error(),
			})
		}
	}

	return emailSent
}

// resolveTempPassword trims a caller-supplied credential or generates one.
func resolveTempPassword(supplied string) (string, error) {
	if p := strings.TrimSpace(supplied); p != "" {
		return p, nil
	}
	return generateTempPassword()
}

// ApproveSociety runs the approval workflow for a pending society: create
// the admin identity+profile, mark the society approved, then notify. The
// sequence is not transactional; a failure partway leaves earlier steps in
// place.
func (h *Handler) ApproveSociety(c *gin.Context) {
	var req models.ApproveSocietyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing societyId", Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	society, err := h.Store.GetSociety(ctx, req.SocietyID)
	if err != nil {
		if errors.Is(err, db.ErrSocietyNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Society not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	tempPass, err := resolveTempPassword(req.TempPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate credentials", Message: err.Error()})
		return
	}

	identity, err := h.Store.CreateIdentity(ctx, society.AdminEmail, tempPass, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	profile := models.Profile{
		ID:          identity.ID,
		Email:       society.AdminEmail,
		FullName:    society.AdminName,
		Role:        models.RoleAdmin,
		SocietyID:   &society.ID,
		IsApproved:  true,
		PhoneNumber: &society.ContactNumber,
	}
	if err := h.Store.UpsertProfile(ctx, profile); err != nil {
		logging.LogKV("error", "profile upsert failed after identity creation", map[string]interface{}{
			"user_id":    identity.ID,
			"society_id": society.ID,
			"error":      err.Error(),
		})
	}

	if err := h.Store.UpdateSocietyStatus(ctx, society.ID, models.SocietyApproved); err != nil {
		// The admin identity already exists at this point.
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	emailSent := h.notifyApproval(ctx, society.AdminEmail, society.AdminName, tempPass, society.ContactNumber)

	c.JSON(http.StatusOK, models.ApproveResponse{Success: true, UserID: identity.ID, EmailSent: emailSent})
}

// RejectSociety marks a society rejected. Terminal; no identity side effects.
func (h *Handler) RejectSociety(c *gin.Context) {
	var req models.RejectSocietyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing societyId", Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.Store.UpdateSocietyStatus(ctx, req.SocietyID, models.SocietyRejected); err != nil {
		if errors.Is(err, db.ErrSocietyNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Society not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ApproveResidentRequest runs the approval workflow for a resident request.
func (h *Handler) ApproveResidentRequest(c *gin.Context) {
	var req models.ApproveAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing requestId", Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	request, err := h.Store.GetResidentRequest(ctx, req.RequestID)
	if err != nil {
		if errors.Is(err, db.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	tempPass, err := resolveTempPassword(req.TempPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate credentials", Message: err.Error()})
		return
	}

	identity, err := h.Store.CreateIdentity(ctx, request.Email, tempPass, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	profile := models.Profile{
		ID:            identity.ID,
		Email:         request.Email,
		FullName:      request.FullName,
		Role:          models.RoleResident,
		SocietyID:     &request.SocietyID,
		IsApproved:    true,
		FlatNumber:    &request.FlatNumber,
		OwnershipType: &request.OwnershipType,
		PhoneNumber:   &request.PhoneNumber,
	}
	if err := h.Store.UpsertProfile(ctx, profile); err != nil {
		logging.LogKV("error", "profile upsert failed after identity creation", map[string]interface{}{
			"user_id":    identity.ID,
			"request_id": request.ID,
			"error":      err.Error(),
		})
	}

	if err := h.Store.MarkResidentRequestApproved(ctx, request.ID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	emailSent := h.notifyApproval(ctx, request.Email, request.FullName, tempPass, request.PhoneNumber)

	c.JSON(http.StatusOK, models.ApproveResponse{Success: true, UserID: identity.ID, EmailSent: emailSent})
}

// ApproveWatchmanRequest runs the approval workflow for a watchman request.
func (h *Handler) ApproveWatchmanRequest(c *gin.Context) {
	var req models.ApproveAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing requestId", Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	request, err := h.Store.GetWatchmanRequest(ctx, req.RequestID)
	if err != nil {
		if errors.Is(err, db.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	tempPass, err := resolveTempPassword(req.TempPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate credentials", Message: err.Error()})
		return
	}

	identity, err := h.Store.CreateIdentity(ctx, request.Email, tempPass, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	profile := models.Profile{
		ID:          identity.ID,
		Email:       request.Email,
		FullName:    request.FullName,
		Role:        models.RoleWatchman,
		SocietyID:   &request.SocietyID,
		IsApproved:  true,
		Shift:       &request.Shift,
		PhoneNumber: &request.PhoneNumber,
	}
	if err := h.Store.UpsertProfile(ctx, profile); err != nil {
		logging.LogKV("error", "profile upsert failed after identity creation", map[string]interface{}{
			"user_id":    identity.ID,
			"request_id": request.ID,
			"error":      err.Error(),
		})
	}

	if err := h.Store.MarkWatchmanRequestApproved(ctx, request.ID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	emailSent := h.notifyApproval(ctx, request.Email, request.FullName, tempPass, request.PhoneNumber)

	c.JSON(http.StatusOK, models.ApproveResponse{Success: true, UserID: identity.ID, EmailSent: emailSent})
}
