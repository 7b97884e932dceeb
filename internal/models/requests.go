package models

import (
	"time"
)

// RequestStatus is the lifecycle state of an access request row. There is no
// persisted rejected state; declined requests are simply left pending.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
)

// ResidentRequest is a pending-access record created by resident
// self-registration. It carries everything needed to build the profile once
// an admin approves it.
type ResidentRequest struct {
	ID            string        `json:"id" db:"id"`
	FullName      string        `json:"full_name" db:"full_name"`
	Email         string        `json:"email" db:"email"`
	PhoneNumber   string        `json:"phone_number" db:"phone_number"`
	SocietyID     string        `json:"society_id" db:"society_id"`
	FlatNumber    string        `json:"flat_number" db:"flat_number"`
	OwnershipType string        `json:"ownership_type" db:"ownership_type"`
	Status        RequestStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// WatchmanRequest is the watchman counterpart of ResidentRequest.
type WatchmanRequest struct {
	ID          string        `json:"id" db:"id"`
	FullName    string        `json:"full_name" db:"full_name"`
	Email       string        `json:"email" db:"email"`
	PhoneNumber string        `json:"phone_number" db:"phone_number"`
	SocietyID   string        `json:"society_id" db:"society_id"`
	Shift       string        `json:"shift" db:"shift"`
	Status      RequestStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}
