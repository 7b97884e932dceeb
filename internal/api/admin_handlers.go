package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/societypro/admin-service/internal/db"
	"github.com/societypro/admin-service/internal/logging"
	"github.com/societypro/admin-service/internal/models"
	"github.com/societypro/admin-service/internal/services"
)

const (
	sesSandboxHint = "If your email account is in sandbox/trial mode, you can only send to verified addresses. Verify the recipient or request production access."
)

// provisionUser is the shared body of the three create endpoints: trim the
// password, create the identity with email pre-confirmed, then upsert the
// profile. A profile failure after a successful identity creation is logged
// but does not fail the request; the identity is real and the caller gets
// its id either way.
func (h *Handler) provisionUser(c *gin.Context, email, password string, profile models.Profile) {
	if !profile.Role.Persistable() {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Role cannot be stored on a profile"})
		return
	}
	cleanPassword := strings.TrimSpace(password)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	identity, err := h.Store.CreateIdentity(ctx, email, cleanPassword, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	profile.ID = identity.ID
	profile.Email = email
	profile.IsApproved = true
	if err := h.Store.UpsertProfile(ctx, profile); err != nil {
		// Identity exists with no profile at this point. Known
		// inconsistent-state risk; surfaced in logs only.
		logging.LogKV("error", "profile upsert failed after identity creation", map[string]interface{}{
			"user_id": identity.ID,
			"email":   email,
			"role":    profile.Role.String(),
			"error":   err.Error(),
		})
	}

	c.JSON(http.StatusOK, models.CreateUserResponse{Success: true, UserID: identity.ID})
}

// CreateAdmin provisions the identity+profile for a society admin.
func (h *Handler) CreateAdmin(c *gin.Context) {
	var req models.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing required fields", Message: err.Error()})
		return
	}

	h.provisionUser(c, req.Email, req.Password, models.Profile{
		FullName:  req.AdminName,
		Role:      models.RoleAdmin,
		SocietyID: &req.SocietyID,
	})
}

// CreateResident provisions the identity+profile for a resident.
func (h *Handler) CreateResident(c *gin.Context) {
	var req models.CreateResidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing required fields", Message: err.Error()})
		return
	}

	h.provisionUser(c, req.Email, req.Password, models.Profile{
		FullName:      req.FullName,
		Role:          models.RoleResident,
		SocietyID:     &req.SocietyID,
		FlatNumber:    &req.FlatNumber,
		OwnershipType: &req.OwnershipType,
		PhoneNumber:   &req.PhoneNumber,
	})
}

// CreateWatchman provisions the identity+profile for a watchman.
func (h *Handler) CreateWatchman(c *gin.Context) {
	var req models.CreateWatchmanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing required fields", Message: err.Error()})
		return
	}

	h.provisionUser(c, req.Email, req.Password, models.Profile{
		FullName:    req.FullName,
		Role:        models.RoleWatchman,
		SocietyID:   &req.SocietyID,
		Shift:       &req.Shift,
		PhoneNumber: &req.PhoneNumber,
	})
}

// SendEmail submits exactly one credential email. No dedup: calling twice
// sends twice.
func (h *Handler) SendEmail(c *gin.Context) {
	var req models.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing required fields (to, name, tempPass)", Message: err.Error()})
		return
	}

	if h.Email == nil {
		c.JSON(http.StatusInternalServerError, models.EmailErrorResponse{
			Error:   "Email service unavailable",
			Details: "Email service not configured",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	messageID, err := h.Email.SendCredentialEmail(ctx, req.To, req.Name, req.TempPass)
	if err != nil {
		if apiErr, ok := services.ProviderError(err); ok {
			c.JSON(http.StatusInternalServerError, models.EmailErrorResponse{
				Error:   "Email provider failed to send",
				Details: apiErr.ErrorMessage(),
				Hint:    sesSandboxHint,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.EmailErrorResponse{
			Error:   "Internal server error",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SendEmailResponse{Success: true, Data: gin.H{"id": messageID}})
}

// DeleteUser removes an identity, its profile, and (when email and role are
// given) the matching pending request row. Deletion is deliberately lenient
// so a partially-deleted prior attempt can be safely retried.
func (h *Handler) DeleteUser(c *gin.Context) {
	var req models.DeleteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing userId", Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.Store.DeleteIdentity(ctx, req.UserID); err != nil {
		// Already-deleted identities are fine; anything else aborts.
		if !errors.Is(err, db.ErrIdentityNotFound) {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
			return
		}
	}

	if err := h.Store.DeleteProfile(ctx, req.UserID); err != nil {
		logging.LogKV("error", "profile deletion failed", map[string]interface{}{
			"user_id": req.UserID,
			"error":   err.Error(),
		})
	}

	if req.Email != "" {
		role, _ := models.ParseRole(req.Role)
		var err error
		switch role {
		case models.RoleResident:
			err = h.Store.DeleteResidentRequestByEmail(ctx, req.Email)
		case models.RoleWatchman:
			err = h.Store.DeleteWatchmanRequestByEmail(ctx, req.Email)
		}
		if err != nil {
			logging.LogKV("error", "request row cleanup failed", map[string]interface{}{
				"email": req.Email,
				"role":  req.Role,
				"error": err.Error(),
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteSociety removes every identity linked to the society, then the
// society row itself. Identity deletions run sequentially; the first hard
// failure aborts the request, leaving the remaining identities undeleted
// while the earlier ones are already irreversibly gone. Already-deleted
// identities are tolerated so a failed teardown can be retried.
func (h *Handler) DeleteSociety(c *gin.Context) {
	var req models.DeleteSocietyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing societyId", Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	profiles, err := h.Store.GetProfilesBySociety(ctx, req.SocietyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	deleted := 0
	for _, profile := range profiles {
		if err := h.Store.DeleteIdentity(ctx, profile.ID); err != nil && !errors.Is(err, db.ErrIdentityNotFound) {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
			return
		}
		deleted++
		if err := h.Store.DeleteProfile(ctx, profile.ID); err != nil {
			logging.LogKV("error", "profile deletion failed during society teardown", map[string]interface{}{
				"user_id": profile.ID,
				"error":   err.Error(),
			})
		}
	}

	// Request tables cascade off the society row.
	if err := h.Store.DeleteSociety(ctx, req.SocietyID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.DeleteSocietyResponse{Success: true, DeletedUsers: deleted})
}
