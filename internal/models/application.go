package models

import (
	"time"

	"github.com/google/uuid"
)

// Application is a candidate's application to a job. This service only reads
// applications to report per-job counts.
type Application struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	JobID       uuid.UUID `json:"job_id" db:"job_id"`
	CandidateID uuid.UUID `json:"candidate_id" db:"candidate_id"`
	AppliedAt   time.Time `json:"applied_at" db:"applied_at"`
}
