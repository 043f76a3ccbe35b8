// Package testhelpers builds fixtures and pgxmock rows shaped like the tables
// the repositories read.
package testhelpers

import (
	"testing"
	"time"

	"jobtracker/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var (
	TenantColumns = []string{"id", "name", "subdomain", "is_active", "created_at", "updated_at"}
	UserColumns   = []string{
		"id", "tenant_id", "email", "password_hash", "first_name", "last_name", "phone_number",
		"role", "is_active", "refresh_token", "refresh_token_expiry", "created_at", "updated_at",
	}
	JobColumns = []string{
		"id", "tenant_id", "title", "description", "department", "location", "employment_type",
		"min_salary", "max_salary", "is_active", "posted_at", "closing_date", "created_at", "updated_at",
	}
)

// NewMockPool returns a pgxmock pool that is closed and checked when t ends.
func NewMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func NewTenant(active bool) *models.Tenant {
	id := uuid.New()
	return &models.Tenant{
		ID:        id,
		Name:      "Tenant " + id.String()[:8],
		Subdomain: "t-" + id.String()[:8],
		IsActive:  active,
		CreatedAt: time.Now().UTC(),
	}
}

func NewUser(tenantID uuid.UUID, email, passwordHash string, role models.Role) *models.User {
	return &models.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
}

func NewJob(tenantID uuid.UUID, title string, postedAt time.Time) *models.Job {
	return &models.Job{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Title:          title,
		Description:    title + " description",
		Department:     "Engineering",
		Location:       "Remote",
		EmploymentType: models.EmploymentFullTime,
		IsActive:       true,
		PostedAt:       postedAt,
		CreatedAt:      postedAt,
	}
}

func TenantRows(tenants ...*models.Tenant) *pgxmock.Rows {
	rows := pgxmock.NewRows(TenantColumns)
	for _, t := range tenants {
		rows.AddRow(t.ID, t.Name, t.Subdomain, t.IsActive, t.CreatedAt, t.UpdatedAt)
	}
	return rows
}

func UserRows(users ...*models.User) *pgxmock.Rows {
	rows := pgxmock.NewRows(UserColumns)
	for _, u := range users {
		rows.AddRow(u.ID, u.TenantID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.PhoneNumber,
			string(u.Role), u.IsActive, u.RefreshToken, u.RefreshTokenExpiry, u.CreatedAt, u.UpdatedAt)
	}
	return rows
}

func JobRows(jobs ...*models.Job) *pgxmock.Rows {
	rows := pgxmock.NewRows(JobColumns)
	for _, j := range jobs {
		rows.AddRow(j.ID, j.TenantID, j.Title, j.Description, j.Department, j.Location, string(j.EmploymentType),
			j.MinSalary, j.MaxSalary, j.IsActive, j.PostedAt, j.ClosingDate, j.CreatedAt, j.UpdatedAt)
	}
	return rows
}

func CountRows(n int64) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"count"}).AddRow(n)
}
