package models

import (
	"time"

	"github.com/google/uuid"
)

type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "FullTime"
	EmploymentPartTime   EmploymentType = "PartTime"
	EmploymentContract   EmploymentType = "Contract"
	EmploymentInternship EmploymentType = "Internship"
	EmploymentTemporary  EmploymentType = "Temporary"
)

// Job is a posting owned by a tenant.
type Job struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	TenantID       uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	Title          string         `json:"title" db:"title"`
	Description    string         `json:"description" db:"description"`
	Department     string         `json:"department" db:"department"`
	Location       string         `json:"location" db:"location"`
	EmploymentType EmploymentType `json:"employment_type" db:"employment_type"`
	MinSalary      *float64       `json:"min_salary,omitempty" db:"min_salary"`
	MaxSalary      *float64       `json:"max_salary,omitempty" db:"max_salary"`
	IsActive       bool           `json:"is_active" db:"is_active"`
	PostedAt       time.Time      `json:"posted_at" db:"posted_at"`
	ClosingDate    *time.Time     `json:"closing_date,omitempty" db:"closing_date"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      *time.Time     `json:"updated_at,omitempty" db:"updated_at"`
}

// JobFilter holds the optional criteria for job listings.
type JobFilter struct {
	SearchTerm string
	Department string
	IsActive   *bool
}
