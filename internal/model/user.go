package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleCEO     Role = "CEO"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
)

func (r Role) String() string { return string(r) }

func (r Role) Valid() bool {
	return r == RoleCEO || r == RoleManager || r == RoleStaff
}

// ParseRole normalizes input; empty => staff.
// Returns (value, true) if valid; otherwise (staff, false).
func ParseRole(s string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "STAFF":
		return RoleStaff, true
	case "CEO":
		return RoleCEO, true
	case "MANAGER":
		return RoleManager, true
	default:
		return RoleStaff, false
	}
}

// User is a staff member audits get assigned to. API access is
// authenticated by APIKey.
type User struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Role         Role      `db:"role"`
	APIKey       string    `db:"api_key"`
	Status       string    `db:"status"`         // active|suspended
	RateLimitRPS *int      `db:"rate_limit_rps"` // nullable
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u *User) Active() bool { return u != nil && u.Status == "active" }
