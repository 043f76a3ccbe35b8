package repositories

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// ApplicationSet is the tenant-scoped, read-only view of job applications.
type ApplicationSet struct {
	g *Gateway
}

func (s *ApplicationSet) CountByJob(ctx context.Context, jobID uuid.UUID) (int, error) {
	q := s.g.scopeSelect(psql.Select("COUNT(*)").From("applications")).Where(sq.Expr("job_id = ?", jobID))
	return s.g.count(ctx, q)
}
