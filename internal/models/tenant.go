package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is an isolated organisation. Tenants are provisioned out of band;
// a deactivated tenant can no longer be resolved for a request but its rows stay.
type Tenant struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Subdomain string     `json:"subdomain" db:"subdomain"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
