package models

import (
	"time"
)

// SocietyStatus is the lifecycle state of a society registration.
type SocietyStatus string

const (
	SocietyPending  SocietyStatus = "pending"
	SocietyApproved SocietyStatus = "approved"
	SocietyRejected SocietyStatus = "rejected"
)

// Society is a tenant organization registration record.
type Society struct {
	ID            string        `json:"id" db:"id"`
	Name          string        `json:"name" db:"name"`
	Address       string        `json:"address" db:"address"`
	ContactNumber string        `json:"contact_number" db:"contact_number"`
	AdminName     string        `json:"admin_name" db:"admin_name"`
	AdminEmail    string        `json:"admin_email" db:"admin_email"`
	Status        SocietyStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}
