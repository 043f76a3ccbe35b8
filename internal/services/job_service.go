package services

import (
	"context"
	"strings"

	"jobtracker/internal/common"
	"jobtracker/internal/models"
	"jobtracker/internal/pipeline"
	"jobtracker/internal/result"

	"github.com/benbjohnson/clock"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// JobService implements the job posting operations.
type JobService struct {
	store GatewayProvider
	clock clock.Clock
}

func NewJobService(store GatewayProvider, clk clock.Clock) *JobService {
	if clk == nil {
		clk = clock.New()
	}
	return &JobService{store: store, clock: clk}
}

func (s *JobService) CreateJob(ctx context.Context, scope pipeline.Scope, cmd CreateJobCommand) result.Result[*JobDTO] {
	if !scope.Tenant.HasTenant() {
		return result.Fail[*JobDTO](result.KindTenantRequired, result.MsgTenantRequired)
	}

	job := &models.Job{
		ID:             uuid.New(),
		Title:          strings.TrimSpace(cmd.Title),
		Description:    strings.TrimSpace(cmd.Description),
		Department:     strings.TrimSpace(cmd.Department),
		Location:       strings.TrimSpace(cmd.Location),
		EmploymentType: cmd.EmploymentType,
		MinSalary:      cmd.MinSalary,
		MaxSalary:      cmd.MaxSalary,
		IsActive:       true,
		PostedAt:       s.clock.Now().UTC(),
		ClosingDate:    cmd.ClosingDate,
	}

	g := s.store.Gateway(scope.Tenant)
	g.Jobs().Add(job)
	if _, err := g.Commit(ctx); err != nil {
		return result.Internal[*JobDTO](err)
	}

	dto := toJobDTO(job)
	return result.Success(&dto)
}

// ListJobs returns one page of jobs, newest first. Without a tenant the
// listing spans every tenant.
func (s *JobService) ListJobs(ctx context.Context, scope pipeline.Scope, q ListJobsQuery) result.Result[*PaginatedList[JobDTO]] {
	page, pageSize := common.ValidatePaginationParams(q.Page, q.PageSize, DefaultPageSize, MaxPageSize)
	filter := models.JobFilter{
		SearchTerm: q.SearchTerm,
		Department: q.Department,
		IsActive:   q.IsActive,
	}

	jobs := s.store.Gateway(scope.Tenant).Jobs()
	total, err := jobs.Count(ctx, filter)
	if err != nil {
		return result.Internal[*PaginatedList[JobDTO]](err)
	}

	list := &PaginatedList[JobDTO]{
		Items:      make([]JobDTO, 0),
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	list.HasPrevious = page > 1
	list.HasNext = page < list.TotalPages

	offset := (page - 1) * pageSize
	if offset >= total {
		return result.Success(list)
	}

	found, err := jobs.List(ctx, filter, offset, pageSize)
	if err != nil {
		return result.Internal[*PaginatedList[JobDTO]](err)
	}
	for _, j := range found {
		list.Items = append(list.Items, toJobDTO(j))
	}
	return result.Success(list)
}

func (s *JobService) GetJob(ctx context.Context, scope pipeline.Scope, q GetJobQuery) result.Result[*JobDetailDTO] {
	id, err := common.ValidateUUID(q.ID, "id")
	if err != nil {
		return result.Invalid[*JobDetailDTO](map[string][]string{"id": {err.Error()}})
	}

	g := s.store.Gateway(scope.Tenant)
	job, err := g.Jobs().FindByID(ctx, id)
	if err != nil {
		return result.Internal[*JobDetailDTO](err)
	}
	if job == nil {
		return result.Failf[*JobDetailDTO](result.KindNotFound, "job with id %s was not found", id)
	}

	count, err := g.Applications().CountByJob(ctx, job.ID)
	if err != nil {
		return result.Internal[*JobDetailDTO](err)
	}

	return result.Success(&JobDetailDTO{
		JobDTO:           toJobDTO(job),
		Description:      job.Description,
		ApplicationCount: count,
	})
}

// createJobRules checks the cross-field rules of CreateJobCommand.
func createJobRules(clk clock.Clock) validator.StructLevelFunc {
	return func(sl validator.StructLevel) {
		cmd, ok := sl.Current().Interface().(CreateJobCommand)
		if !ok {
			return
		}
		if cmd.MinSalary != nil && cmd.MaxSalary != nil && *cmd.MinSalary > *cmd.MaxSalary {
			sl.ReportError(cmd.MaxSalary, "max_salary", "MaxSalary", "salary_range", "")
		}
		if cmd.ClosingDate != nil && !cmd.ClosingDate.After(clk.Now()) {
			sl.ReportError(cmd.ClosingDate, "closing_date", "ClosingDate", "future", "")
		}
	}
}
