package models

import (
	"time"
)

// Wire types for the admin API. Field names follow the frontend contract
// (camelCase), while persisted entities keep snake_case tags.

// LoginRequest is the payload for password authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the session token and the caller's profile. Profile
// is nil for the out-of-band executive login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      Role      `json:"role"`
	Profile   *Profile  `json:"profile,omitempty"`
}

// CreateAdminRequest creates the identity+profile for a society admin.
type CreateAdminRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	AdminName string `json:"adminName" binding:"required"`
	SocietyID string `json:"societyId" binding:"required"`
}

// CreateResidentRequest creates the identity+profile for a resident.
type CreateResidentRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required"`
	FullName      string `json:"fullName" binding:"required"`
	SocietyID     string `json:"societyId" binding:"required"`
	FlatNumber    string `json:"flatNumber" binding:"required"`
	OwnershipType string `json:"ownershipType" binding:"required"`
	PhoneNumber   string `json:"phoneNumber" binding:"required"`
}

// CreateWatchmanRequest creates the identity+profile for a watchman.
type CreateWatchmanRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	FullName    string `json:"fullName" binding:"required"`
	SocietyID   string `json:"societyId" binding:"required"`
	Shift       string `json:"shift" binding:"required"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

// CreateUserResponse is returned by all three create endpoints.
type CreateUserResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
}

// DeleteUserRequest deletes an identity and its profile. Email and role, when
// present, additionally purge the matching pending request row.
type DeleteUserRequest struct {
	UserID string `json:"userId" binding:"required"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// DeleteSocietyRequest deletes a society and every linked identity.
type DeleteSocietyRequest struct {
	SocietyID string `json:"societyId" binding:"required"`
}

// DeleteSocietyResponse reports how many identities were removed.
type DeleteSocietyResponse struct {
	Success      bool `json:"success"`
	DeletedUsers int  `json:"deletedUsers"`
}

// SendEmailRequest submits one credential email.
type SendEmailRequest struct {
	To       string `json:"to" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	TempPass string `json:"tempPass" binding:"required"`
}

// SendEmailResponse echoes the provider's message metadata.
type SendEmailResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// RegisterSocietyRequest is the public society registration payload.
type RegisterSocietyRequest struct {
	Name          string `json:"name" binding:"required"`
	Address       string `json:"address" binding:"required"`
	ContactNumber string `json:"contactNumber" binding:"required"`
	AdminName     string `json:"adminName" binding:"required"`
	AdminEmail    string `json:"adminEmail" binding:"required,email"`
}

// RegisterResidentRequest is the public resident self-registration payload.
type RegisterResidentRequest struct {
	FullName      string `json:"fullName" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	PhoneNumber   string `json:"phoneNumber" binding:"required"`
	SocietyID     string `json:"societyId" binding:"required"`
	FlatNumber    string `json:"flatNumber" binding:"required"`
	OwnershipType string `json:"ownershipType" binding:"required"`
}

// RegisterWatchmanRequest is the public watchman self-registration payload.
type RegisterWatchmanRequest struct {
	FullName    string `json:"fullName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	SocietyID   string `json:"societyId" binding:"required"`
	Shift       string `json:"shift" binding:"required"`
}

// ApproveSocietyRequest triggers the approval workflow for a society. When
// TempPassword is empty the server generates one.
type ApproveSocietyRequest struct {
	SocietyID    string `json:"societyId" binding:"required"`
	TempPassword string `json:"tempPassword"`
}

// RejectSocietyRequest marks a society rejected. Terminal, no side effects.
type RejectSocietyRequest struct {
	SocietyID string `json:"societyId" binding:"required"`
}

// ApproveAccessRequest triggers the approval workflow for a resident or
// watchman request row.
type ApproveAccessRequest struct {
	RequestID    string `json:"requestId" binding:"required"`
	TempPassword string `json:"tempPassword"`
}

// ApproveResponse reports the identity created by an approval.
type ApproveResponse struct {
	Success   bool   `json:"success"`
	UserID    string `json:"userId"`
	EmailSent bool   `json:"emailSent"`
}

// ErrorResponse is the error envelope for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// EmailErrorResponse is the richer error envelope for the send-email
// endpoint, carrying the provider diagnostic and an operator hint.
type EmailErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}
