package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleHR        Role = "HR"
	RoleCandidate Role = "Candidate"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleCandidate:
		return true
	}
	return false
}

type User struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	TenantID           uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Email              string     `json:"email" db:"email"`
	PasswordHash       string     `json:"-" db:"password_hash"` // Never serialize in JSON
	FirstName          string     `json:"first_name" db:"first_name"`
	LastName           string     `json:"last_name" db:"last_name"`
	PhoneNumber        *string    `json:"phone_number,omitempty" db:"phone_number"`
	Role               Role       `json:"role" db:"role"`
	IsActive           bool       `json:"is_active" db:"is_active"`
	RefreshToken       *string    `json:"-" db:"refresh_token"` // SHA-256 digest, never the raw token
	RefreshTokenExpiry *time.Time `json:"-" db:"refresh_token_expiry"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Identity is the authenticated caller as carried by a validated access token.
// TenantClaim is kept raw; the tenant resolver decides whether it parses.
type Identity struct {
	UserID      uuid.UUID
	Email       string
	Role        Role
	TenantClaim string
}

// BelongsTo reports whether the identity's tenant claim names tenantID.
func (i *Identity) BelongsTo(tenantID uuid.UUID) bool {
	return i != nil && i.TenantClaim == tenantID.String()
}

// HasRole reports whether the identity holds any of roles.
func (i *Identity) HasRole(roles ...Role) bool {
	if i == nil {
		return false
	}
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}
