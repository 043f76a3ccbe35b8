package services

import (
	"time"

	"jobtracker/internal/models"

	"github.com/google/uuid"
)

type RegisterCommand struct {
	Email       string      `json:"email" validate:"required,email,max=255"`
	Password    string      `json:"password" validate:"required,min=8,max=72"`
	FirstName   string      `json:"first_name" validate:"required,max=100"`
	LastName    string      `json:"last_name" validate:"required,max=100"`
	PhoneNumber *string     `json:"phone_number,omitempty" validate:"omitempty,max=20"`
	Role        models.Role `json:"role,omitempty" validate:"omitempty,oneof=Admin HR Candidate"`
}

type LoginCommand struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenCommand struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CreateJobCommand struct {
	Title          string                `json:"title" validate:"required,max=200"`
	Description    string                `json:"description" validate:"required,max=10000"`
	Department     string                `json:"department" validate:"required,max=100"`
	Location       string                `json:"location" validate:"required,max=200"`
	EmploymentType models.EmploymentType `json:"employment_type" validate:"required,oneof=FullTime PartTime Contract Internship Temporary"`
	MinSalary      *float64              `json:"min_salary,omitempty" validate:"omitempty,gte=0"`
	MaxSalary      *float64              `json:"max_salary,omitempty" validate:"omitempty,gte=0"`
	ClosingDate    *time.Time            `json:"closing_date,omitempty"`
}

type ListJobsQuery struct {
	Page       int    `json:"page" query:"page" validate:"gte=0"`
	PageSize   int    `json:"page_size" query:"page_size" validate:"gte=0"`
	SearchTerm string `json:"search_term" query:"search_term" validate:"max=100"`
	Department string `json:"department" query:"department" validate:"max=100"`
	IsActive   *bool  `json:"is_active" query:"is_active"`
}

type GetJobQuery struct {
	ID string `json:"id" param:"id" validate:"required,uuid"`
}

type UserDTO struct {
	ID          uuid.UUID   `json:"id"`
	TenantID    uuid.UUID   `json:"tenant_id"`
	Email       string      `json:"email"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	PhoneNumber *string     `json:"phone_number,omitempty"`
	Role        models.Role `json:"role"`
	IsActive    bool        `json:"is_active"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	User *UserDTO `json:"user"`
	*models.TokenResponse
}

type JobDTO struct {
	ID             uuid.UUID             `json:"id"`
	Title          string                `json:"title"`
	Department     string                `json:"department"`
	Location       string                `json:"location"`
	EmploymentType models.EmploymentType `json:"employment_type"`
	MinSalary      *float64              `json:"min_salary,omitempty"`
	MaxSalary      *float64              `json:"max_salary,omitempty"`
	IsActive       bool                  `json:"is_active"`
	PostedAt       time.Time             `json:"posted_at"`
	ClosingDate    *time.Time            `json:"closing_date,omitempty"`
}

type JobDetailDTO struct {
	JobDTO
	Description      string `json:"description"`
	ApplicationCount int    `json:"application_count"`
}

type PaginatedList[T any] struct {
	Items       []T  `json:"items"`
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	TotalCount  int  `json:"total_count"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

func toUserDTO(u *models.User) *UserDTO {
	return &UserDTO{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
		IsActive:    u.IsActive,
	}
}

func toJobDTO(j *models.Job) JobDTO {
	return JobDTO{
		ID:             j.ID,
		Title:          j.Title,
		Department:     j.Department,
		Location:       j.Location,
		EmploymentType: j.EmploymentType,
		MinSalary:      j.MinSalary,
		MaxSalary:      j.MaxSalary,
		IsActive:       j.IsActive,
		PostedAt:       j.PostedAt,
		ClosingDate:    j.ClosingDate,
	}
}
