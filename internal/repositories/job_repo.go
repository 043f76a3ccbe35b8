package repositories

import (
	"context"
	"strings"
	"time"

	"jobtracker/internal/common"
	"jobtracker/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var jobColumns = []string{
	"id", "tenant_id", "title", "description", "department", "location", "employment_type",
	"min_salary", "max_salary", "is_active", "posted_at", "closing_date", "created_at", "updated_at",
}

// JobSet is the tenant-scoped view of the jobs table.
type JobSet struct {
	g *Gateway
}

func (s *JobSet) FindByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	q := s.g.scopeSelect(psql.Select(jobColumns...).From("jobs")).Where(sq.Expr("id = ?", id)).Limit(1)
	jobs, err := s.collect(ctx, q)
	if err != nil || len(jobs) == 0 {
		return nil, err
	}
	return jobs[0], nil
}

// Count returns how many jobs in scope match filter.
func (s *JobSet) Count(ctx context.Context, filter models.JobFilter) (int, error) {
	q := applyJobFilter(s.g.scopeSelect(psql.Select("COUNT(*)").From("jobs")), filter)
	return s.g.count(ctx, q)
}

// List returns one page of matching jobs, newest posting first. Jobs posted at
// the same instant keep insertion order.
func (s *JobSet) List(ctx context.Context, filter models.JobFilter, offset, limit int) ([]*models.Job, error) {
	q := applyJobFilter(s.g.scopeSelect(psql.Select(jobColumns...).From("jobs")), filter).
		OrderBy("posted_at DESC", "seq ASC").
		Offset(uint64(offset)).
		Limit(uint64(limit))
	return s.collect(ctx, q)
}

// OpenPastClosingDate lists active jobs whose closing date is before now.
func (s *JobSet) OpenPastClosingDate(ctx context.Context, now time.Time) ([]*models.Job, error) {
	q := s.g.scopeSelect(psql.Select(jobColumns...).From("jobs")).
		Where(sq.Eq{"is_active": true}).
		Where(sq.NotEq{"closing_date": nil}).
		Where(sq.Lt{"closing_date": now}).
		OrderBy("closing_date ASC")
	return s.collect(ctx, q)
}

func (s *JobSet) Add(j *models.Job) {
	s.g.stage(changeInsert, jobEntity{j})
}

func (s *JobSet) Update(j *models.Job) {
	s.g.stage(changeUpdate, jobEntity{j})
}

func (s *JobSet) collect(ctx context.Context, q sq.SelectBuilder) ([]*models.Job, error) {
	rows, err := s.g.query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]*models.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, persistence("scan job", err)
		}
		if s.g.owns(j.TenantID) {
			jobs = append(jobs, j)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("iterate jobs", err)
	}
	return jobs, nil
}

func applyJobFilter(q sq.SelectBuilder, f models.JobFilter) sq.SelectBuilder {
	if term := common.SanitizeSearchQuery(f.SearchTerm); term != "" {
		pattern := "%" + common.EscapeLikePattern(term) + "%"
		q = q.Where(sq.Or{sq.ILike{"title": pattern}, sq.ILike{"description": pattern}})
	}
	if dept := strings.TrimSpace(f.Department); dept != "" {
		q = q.Where(sq.Eq{"department": dept})
	}
	if f.IsActive != nil {
		q = q.Where(sq.Eq{"is_active": *f.IsActive})
	}
	return q
}

func scanJob(rows pgx.Rows) (*models.Job, error) {
	j := &models.Job{}
	var employmentType string
	err := rows.Scan(&j.ID, &j.TenantID, &j.Title, &j.Description, &j.Department, &j.Location, &employmentType,
		&j.MinSalary, &j.MaxSalary, &j.IsActive, &j.PostedAt, &j.ClosingDate, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.EmploymentType = models.EmploymentType(employmentType)
	return j, nil
}

type jobEntity struct {
	j *models.Job
}

func (e jobEntity) owner() *uuid.UUID { return &e.j.TenantID }

func (e jobEntity) stampCreated(now time.Time) { e.j.CreatedAt = now }

func (e jobEntity) stampUpdated(now time.Time) { e.j.UpdatedAt = &now }

func (e jobEntity) idColumn() (string, uuid.UUID) { return "id", e.j.ID }

func (e jobEntity) insert() sq.InsertBuilder {
	j := e.j
	return psql.Insert("jobs").Columns(jobColumns...).Values(
		j.ID, nullableUUID(j.TenantID), j.Title, j.Description, j.Department, j.Location, string(j.EmploymentType),
		j.MinSalary, j.MaxSalary, j.IsActive, j.PostedAt, j.ClosingDate, j.CreatedAt, j.UpdatedAt,
	)
}

func (e jobEntity) update() sq.UpdateBuilder {
	j := e.j
	return psql.Update("jobs").
		Set("title", j.Title).
		Set("description", j.Description).
		Set("department", j.Department).
		Set("location", j.Location).
		Set("employment_type", string(j.EmploymentType)).
		Set("min_salary", j.MinSalary).
		Set("max_salary", j.MaxSalary).
		Set("is_active", j.IsActive).
		Set("closing_date", j.ClosingDate).
		Set("updated_at", j.UpdatedAt)
}
