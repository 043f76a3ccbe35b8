package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobtracker/internal/models"
	"jobtracker/internal/tenancy"

	sq "github.com/Masterminds/squirrel"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrPersistence wraps every store failure. Callers that need a domain
	// error (duplicate email, ...) must check before writing.
	ErrPersistence = errors.New("persistence failure")
	// ErrCrossTenantWrite is returned when a staged entity belongs to a tenant
	// other than the active one.
	ErrCrossTenantWrite = errors.New("entity belongs to another tenant")
)

// DB is the subset of pgxpool.Pool the gateway needs. pgxmock pools satisfy it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store is the process-wide entry point to the data store. It holds no
// request state; every request gets its own Gateway.
type Store struct {
	db    DB
	clock clock.Clock
}

func NewStore(db DB, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.New()
	}
	return &Store{db: db, clock: clk}
}

// Gateway returns a request-scoped gateway bound to tc.
func (s *Store) Gateway(tc *tenancy.TenantContext) *Gateway {
	if tc == nil {
		tc = tenancy.New()
	}
	return &Gateway{db: s.db, clock: s.clock, tc: tc}
}

// Unscoped returns a gateway without a tenant. Reads span every tenant, so it
// is reserved for trusted internal paths such as tenant resolution and
// maintenance jobs.
func (s *Store) Unscoped() *Gateway {
	return s.Gateway(tenancy.New())
}

// FindTenant looks a tenant up ignoring isolation; tenant resolution depends on it.
func (s *Store) FindTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.Unscoped().Tenants().FindByID(ctx, id)
}

type changeKind int

const (
	changeInsert changeKind = iota
	changeUpdate
)

// trackedEntity is implemented by the per-table adapters the entity sets stage.
type trackedEntity interface {
	owner() *uuid.UUID
	stampCreated(now time.Time)
	stampUpdated(now time.Time)
	insert() sq.InsertBuilder
	update() sq.UpdateBuilder
	idColumn() (string, uuid.UUID)
}

type change struct {
	kind   changeKind
	entity trackedEntity
}

// Gateway is the single seam all entity reads and writes go through for one
// request. Tenant-scoped reads are filtered by the bound tenant context and
// staged writes are flushed by Commit.
type Gateway struct {
	db      DB
	clock   clock.Clock
	tc      *tenancy.TenantContext
	pending []change
}

func (g *Gateway) Tenants() *TenantSet { return &TenantSet{g: g} }

func (g *Gateway) Users() *UserSet { return &UserSet{g: g} }

func (g *Gateway) Jobs() *JobSet { return &JobSet{g: g} }

func (g *Gateway) Applications() *ApplicationSet { return &ApplicationSet{g: g} }

// Pending reports how many staged changes await Commit.
func (g *Gateway) Pending() int { return len(g.pending) }

func (g *Gateway) stage(kind changeKind, e trackedEntity) {
	g.pending = append(g.pending, change{kind: kind, entity: e})
}

// Commit writes every staged change in a single transaction and returns the
// number of affected rows. New entities without a tenant are stamped with the
// active tenant; nothing is stamped when no tenant is set.
func (g *Gateway) Commit(ctx context.Context) (int, error) {
	if len(g.pending) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tenantID, scoped := g.tc.TenantID()
	now := g.clock.Now().UTC()

	statements := make([]sq.Sqlizer, 0, len(g.pending))
	for _, c := range g.pending {
		owner := c.entity.owner()
		if scoped && *owner == uuid.Nil && c.kind == changeInsert {
			*owner = tenantID
		}
		if scoped && *owner != uuid.Nil && *owner != tenantID {
			return 0, ErrCrossTenantWrite
		}

		switch c.kind {
		case changeInsert:
			c.entity.stampCreated(now)
			statements = append(statements, c.entity.insert())
		case changeUpdate:
			c.entity.stampUpdated(now)
			column, id := c.entity.idColumn()
			statements = append(statements, g.scopeUpdate(c.entity.update().Where(sq.Expr(column+" = ?", id))))
		}
	}

	tx, err := g.db.Begin(ctx)
	if err != nil {
		return 0, persistence("begin transaction", err)
	}

	affected := 0
	for _, stmt := range statements {
		if err := ctx.Err(); err != nil {
			g.rollback(ctx, tx)
			return 0, err
		}
		query, args, err := stmt.ToSql()
		if err != nil {
			g.rollback(ctx, tx)
			return 0, fmt.Errorf("build statement: %w", err)
		}
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			g.rollback(ctx, tx)
			return 0, persistence("write", err)
		}
		affected += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, persistence("commit", err)
	}
	g.pending = nil
	return affected, nil
}

func (g *Gateway) rollback(ctx context.Context, tx pgx.Tx) {
	_ = tx.Rollback(context.WithoutCancel(ctx))
}

// scopeSelect constrains a read on a tenant-scoped table.
func (g *Gateway) scopeSelect(b sq.SelectBuilder) sq.SelectBuilder {
	if id, ok := g.tc.TenantID(); ok {
		return b.Where(sq.Expr("tenant_id = ?", id))
	}
	return b
}

func (g *Gateway) scopeUpdate(b sq.UpdateBuilder) sq.UpdateBuilder {
	if id, ok := g.tc.TenantID(); ok {
		return b.Where(sq.Expr("tenant_id = ?", id))
	}
	return b
}

// owns reports whether a row read back may be handed to the caller.
func (g *Gateway) owns(rowTenant uuid.UUID) bool {
	id, ok := g.tc.TenantID()
	return !ok || rowTenant == id
}

func (g *Gateway) query(ctx context.Context, b sq.SelectBuilder) (pgx.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := g.db.Query(ctx, query, args...)
	if err != nil {
		return nil, persistence("query", err)
	}
	return rows, nil
}

func (g *Gateway) queryRow(ctx context.Context, b sq.SelectBuilder, dest ...any) (bool, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	if err := g.db.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, persistence("query", err)
	}
	return true, nil
}

func (g *Gateway) count(ctx context.Context, b sq.SelectBuilder) (int, error) {
	var n int64
	if _, err := g.queryRow(ctx, b, &n); err != nil {
		return 0, err
	}
	return int(n), nil
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// nullableUUID keeps an unstamped tenant as NULL instead of the zero uuid.
func nullableUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
