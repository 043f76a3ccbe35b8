package repositories

import (
	"context"

	"jobtracker/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var tenantColumns = []string{"id", "name", "subdomain", "is_active", "created_at", "updated_at"}

// TenantSet reads tenants. Tenants are not tenant-scoped, so no filter applies.
type TenantSet struct {
	g *Gateway
}

// FindByID returns nil, nil when the tenant does not exist.
func (s *TenantSet) FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	q := psql.Select(tenantColumns...).From("tenants").Where(sq.Expr("id = ?", id))
	return s.findOne(ctx, q)
}

func (s *TenantSet) findOne(ctx context.Context, q sq.SelectBuilder) (*models.Tenant, error) {
	t := &models.Tenant{}
	found, err := s.g.queryRow(ctx, q, &t.ID, &t.Name, &t.Subdomain, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil || !found {
		return nil, err
	}
	return t, nil
}
