package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles understood by the platform.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleResident Role = "resident"
	RoleWatchman Role = "watchman"
	// RoleExecutive is never persisted to a profile row. Executives
	// authenticate against configured credentials and exist only as a
	// token claim.
	RoleExecutive Role = "executive"
)

// ParseRole canonicalizes a role string. Roles are stored lower-case;
// callers may send any casing.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleResident, RoleWatchman, RoleExecutive:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Persistable reports whether the role may appear on a profile row.
func (r Role) Persistable() bool {
	return r == RoleAdmin || r == RoleResident || r == RoleWatchman
}

func (r Role) String() string { return string(r) }
