package services

import (
	"jobtracker/internal/models"
	"jobtracker/internal/pipeline"

	"github.com/benbjohnson/clock"
)

// Operations are the handlers composed with the pipeline behaviors, built once
// at startup.
type Operations struct {
	Register     pipeline.HandlerFunc[RegisterCommand, *AuthResponse]
	Login        pipeline.HandlerFunc[LoginCommand, *AuthResponse]
	RefreshToken pipeline.HandlerFunc[RefreshTokenCommand, *AuthResponse]
	CreateJob    pipeline.HandlerFunc[CreateJobCommand, *JobDTO]
	ListJobs     pipeline.HandlerFunc[ListJobsQuery, *PaginatedList[JobDTO]]
	GetJob       pipeline.HandlerFunc[GetJobQuery, *JobDetailDTO]
}

func NewOperations(p *pipeline.Pipeline, auth *AuthService, jobs *JobService, clk clock.Clock) *Operations {
	if clk == nil {
		clk = clock.New()
	}
	p.Validator().RegisterStructValidation(createJobRules(clk), CreateJobCommand{})

	return &Operations{
		Register: pipeline.Build(p, pipeline.Operation[RegisterCommand, *AuthResponse]{
			Name:    "register",
			Handler: auth.Register,
		}),
		Login: pipeline.Build(p, pipeline.Operation[LoginCommand, *AuthResponse]{
			Name:    "login",
			Handler: auth.Login,
		}),
		RefreshToken: pipeline.Build(p, pipeline.Operation[RefreshTokenCommand, *AuthResponse]{
			Name:    "refresh_token",
			Handler: auth.RefreshToken,
		}),
		CreateJob: pipeline.Build(p, pipeline.Operation[CreateJobCommand, *JobDTO]{
			Name:    "create_job",
			Roles:   []models.Role{models.RoleAdmin, models.RoleHR},
			Handler: jobs.CreateJob,
		}),
		ListJobs: pipeline.Build(p, pipeline.Operation[ListJobsQuery, *PaginatedList[JobDTO]]{
			Name:    "list_jobs",
			Handler: jobs.ListJobs,
		}),
		GetJob: pipeline.Build(p, pipeline.Operation[GetJobQuery, *JobDetailDTO]{
			Name:    "get_job",
			Handler: jobs.GetJob,
		}),
	}
}
