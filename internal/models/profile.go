package models

import (
	"time"
)

// Identity represents an authentication principal. The password hash never
// leaves the db package; this struct carries only what handlers may see.
type Identity struct {
	ID             string    `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	EmailConfirmed bool      `json:"email_confirmed" db:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Profile is the application-level record for an identity: its role, society
// membership, and role-specific attributes. Profile.ID always equals the
// identity id it describes.
type Profile struct {
	ID            string    `json:"id" db:"id"`
	Email         string    `json:"email" db:"email"`
	FullName      string    `json:"full_name" db:"full_name"`
	Role          Role      `json:"role" db:"role"`
	SocietyID     *string   `json:"society_id,omitempty" db:"society_id"`
	IsApproved    bool      `json:"is_approved" db:"is_approved"`
	FlatNumber    *string   `json:"flat_number,omitempty" db:"flat_number"`
	OwnershipType *string   `json:"ownership_type,omitempty" db:"ownership_type"`
	Shift         *string   `json:"shift,omitempty" db:"shift"`
	PhoneNumber   *string   `json:"phone_number,omitempty" db:"phone_number"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
