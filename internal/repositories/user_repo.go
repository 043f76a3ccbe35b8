package repositories

import (
	"context"
	"time"

	"jobtracker/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var userColumns = []string{
	"id", "tenant_id", "email", "password_hash", "first_name", "last_name", "phone_number",
	"role", "is_active", "refresh_token", "refresh_token_expiry", "created_at", "updated_at",
}

// UserSet is the tenant-scoped view of the users table.
type UserSet struct {
	g *Gateway
}

func (s *UserSet) selectUsers() sq.SelectBuilder {
	return s.g.scopeSelect(psql.Select(userColumns...).From("users"))
}

func (s *UserSet) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findOne(ctx, s.selectUsers().Where(sq.Expr("id = ?", id)))
}

// FindByEmail returns nil, nil when no user in scope has the email.
func (s *UserSet) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, s.selectUsers().Where(sq.Eq{"email": email}))
}

func (s *UserSet) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	q := s.g.scopeSelect(psql.Select("COUNT(*)").From("users")).Where(sq.Eq{"email": email})
	n, err := s.g.count(ctx, q)
	return n > 0, err
}

// Count returns how many users are in scope.
func (s *UserSet) Count(ctx context.Context) (int, error) {
	return s.g.count(ctx, s.g.scopeSelect(psql.Select("COUNT(*)").From("users")))
}

// FindByRefreshToken looks a user up by the stored refresh token digest.
func (s *UserSet) FindByRefreshToken(ctx context.Context, digest string) (*models.User, error) {
	return s.findOne(ctx, s.selectUsers().Where(sq.Eq{"refresh_token": digest}))
}

// WithExpiredRefreshTokens lists users whose refresh token expired before now.
func (s *UserSet) WithExpiredRefreshTokens(ctx context.Context, now time.Time) ([]*models.User, error) {
	q := s.selectUsers().
		Where(sq.NotEq{"refresh_token": nil}).
		Where(sq.Lt{"refresh_token_expiry": now}).
		OrderBy("created_at ASC")
	rows, err := s.g.query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, persistence("scan user", err)
		}
		if s.g.owns(u.TenantID) {
			users = append(users, u)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("iterate users", err)
	}
	return users, nil
}

// Add stages a new user for the next Commit.
func (s *UserSet) Add(u *models.User) {
	s.g.stage(changeInsert, userEntity{u})
}

// Update stages changes to an existing user for the next Commit.
func (s *UserSet) Update(u *models.User) {
	s.g.stage(changeUpdate, userEntity{u})
}

func (s *UserSet) findOne(ctx context.Context, q sq.SelectBuilder) (*models.User, error) {
	rows, err := s.g.query(ctx, q.Limit(1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, persistence("query user", err)
		}
		return nil, nil
	}
	u, err := scanUser(rows)
	if err != nil {
		return nil, persistence("scan user", err)
	}
	if !s.g.owns(u.TenantID) {
		return nil, nil
	}
	return u, nil
}

func scanUser(rows pgx.Rows) (*models.User, error) {
	u := &models.User{}
	var role string
	err := rows.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.PhoneNumber,
		&role, &u.IsActive, &u.RefreshToken, &u.RefreshTokenExpiry, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return u, nil
}

type userEntity struct {
	u *models.User
}

func (e userEntity) owner() *uuid.UUID { return &e.u.TenantID }

func (e userEntity) stampCreated(now time.Time) { e.u.CreatedAt = now }

func (e userEntity) stampUpdated(now time.Time) { e.u.UpdatedAt = &now }

func (e userEntity) idColumn() (string, uuid.UUID) { return "id", e.u.ID }

func (e userEntity) insert() sq.InsertBuilder {
	u := e.u
	return psql.Insert("users").Columns(userColumns...).Values(
		u.ID, nullableUUID(u.TenantID), u.Email, u.PasswordHash, u.FirstName, u.LastName, u.PhoneNumber,
		string(u.Role), u.IsActive, u.RefreshToken, u.RefreshTokenExpiry, u.CreatedAt, u.UpdatedAt,
	)
}

func (e userEntity) update() sq.UpdateBuilder {
	u := e.u
	return psql.Update("users").
		Set("email", u.Email).
		Set("password_hash", u.PasswordHash).
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("phone_number", u.PhoneNumber).
		Set("role", string(u.Role)).
		Set("is_active", u.IsActive).
		Set("refresh_token", u.RefreshToken).
		Set("refresh_token_expiry", u.RefreshTokenExpiry).
		Set("updated_at", u.UpdatedAt)
}
