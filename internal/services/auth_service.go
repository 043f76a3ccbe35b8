package services

import (
	"context"
	"strings"

	"jobtracker/internal/common"
	"jobtracker/internal/models"
	"jobtracker/internal/pipeline"
	"jobtracker/internal/repositories"
	"jobtracker/internal/result"
	"jobtracker/internal/tenancy"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgDuplicateEmail       = "a user with this email already exists"
	msgAccountDeactivated   = "user account is deactivated"
	msgInvalidRefreshToken  = "invalid or expired refresh token"
	msgTooManyAttempts      = "too many failed login attempts, try again later"
	msgElevatedRoleRequired = "only a tenant administrator can assign this role"
)

// GatewayProvider hands out request-scoped gateways. *repositories.Store
// implements it.
type GatewayProvider interface {
	Gateway(tc *tenancy.TenantContext) *repositories.Gateway
}

// LoginThrottle limits failed login attempts per key.
type LoginThrottle interface {
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// AuthService implements the register, login and refresh operations.
type AuthService struct {
	store       GatewayProvider
	credentials *CredentialService
	throttle    LoginThrottle
	clock       clock.Clock
	logger      *zap.Logger
}

// NewAuthService builds the auth handlers. throttle may be nil.
func NewAuthService(store GatewayProvider, credentials *CredentialService, throttle LoginThrottle, clk clock.Clock, logger *zap.Logger) *AuthService {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		store:       store,
		credentials: credentials,
		throttle:    throttle,
		clock:       clk,
		logger:      logger,
	}
}

func (s *AuthService) Register(ctx context.Context, scope pipeline.Scope, cmd RegisterCommand) result.Result[*AuthResponse] {
	tenantID, ok := scope.Tenant.TenantID()
	if !ok {
		return result.Fail[*AuthResponse](result.KindTenantRequired, result.MsgTenantRequired)
	}

	role := cmd.Role
	if role == "" {
		role = models.RoleCandidate
	}
	g := s.store.Gateway(scope.Tenant)
	if role != models.RoleCandidate && !isTenantAdmin(scope.Identity, tenantID) {
		// The first user of a tenant may take any role.
		users, err := g.Users().Count(ctx)
		if err != nil {
			return result.Internal[*AuthResponse](err)
		}
		if users > 0 {
			return result.Fail[*AuthResponse](result.KindForbidden, msgElevatedRoleRequired)
		}
	}

	email := common.NormalizeEmail(cmd.Email)

	exists, err := g.Users().ExistsByEmail(ctx, email)
	if err != nil {
		return result.Internal[*AuthResponse](err)
	}
	if exists {
		return result.Fail[*AuthResponse](result.KindDuplicate, msgDuplicateEmail)
	}

	hash, err := s.credentials.HashPassword(cmd.Password)
	if err != nil {
		return result.Internal[*AuthResponse](err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(cmd.FirstName),
		LastName:     strings.TrimSpace(cmd.LastName),
		PhoneNumber:  cmd.PhoneNumber,
		Role:         role,
		IsActive:     true,
	}
	refresh, err := s.credentials.IssueRefreshToken()
	if err != nil {
		return result.Internal[*AuthResponse](err)
	}
	s.setRefreshToken(user, refresh)

	g.Users().Add(user)
	if _, err := g.Commit(ctx); err != nil {
		return result.Internal[*AuthResponse](err)
	}

	return s.respond(user, refresh)
}

func (s *AuthService) Login(ctx context.Context, scope pipeline.Scope, cmd LoginCommand) result.Result[*AuthResponse] {
	tenantID, ok := scope.Tenant.TenantID()
	if !ok {
		return result.Fail[*AuthResponse](result.KindTenantRequired, result.MsgTenantRequired)
	}

	email := common.NormalizeEmail(cmd.Email)
	throttleKey := tenantID.String() + ":" + email
	if !s.allowLogin(ctx, throttleKey) {
		return result.Fail[*AuthResponse](result.KindTooManyAttempts, msgTooManyAttempts)
	}

	g := s.store.Gateway(scope.Tenant)
	user, err := g.Users().FindByEmail(ctx, email)
	if err != nil {
		return result.Internal[*AuthResponse](err)
	}
	hash := s.credentials.DummyHash()
	if user != nil {
		hash = user.PasswordHash
	}
	if !s.credentials.VerifyPassword(cmd.Password, hash) || user == nil {
		s.recordFailure(ctx, throttleKey)
		return result.Fail[*AuthResponse](result.KindInvalidCredentials, result.MsgInvalidCredentials)
	}
	if !user.IsActive {
		return result.Fail[*AuthResponse](result.KindForbidden, msgAccountDeactivated)
	}

	res := s.rotate(ctx, g, user)
	if res.IsSuccess() {
		s.resetThrottle(ctx, throttleKey)
	}
	return res
}

// RefreshToken exchanges a stored refresh token for a new token pair. The old
// refresh token stops working.
func (s *AuthService) RefreshToken(ctx context.Context, scope pipeline.Scope, cmd RefreshTokenCommand) result.Result[*AuthResponse] {
	if !scope.Tenant.HasTenant() {
		return result.Fail[*AuthResponse](result.KindTenantRequired, result.MsgTenantRequired)
	}

	g := s.store.Gateway(scope.Tenant)
	user, err := g.Users().FindByRefreshToken(ctx, s.credentials.DigestRefreshToken(cmd.RefreshToken))
	if err != nil {
		return result.Internal[*AuthResponse](err)
	}
	if user == nil || !user.IsActive || user.RefreshTokenExpiry == nil || !user.RefreshTokenExpiry.After(s.clock.Now()) {
		return result.Fail[*AuthResponse](result.KindUnauthenticated, msgInvalidRefreshToken)
	}

	return s.rotate(ctx, g, user)
}

// rotate replaces the user's refresh token and returns a fresh token pair.
func (s *AuthService) rotate(ctx context.Context, g *repositories.Gateway, user *models.User) result.Result[*AuthResponse] {
	refresh, err := s.credentials.IssueRefreshToken()
	if err != nil {
		return result.Internal[*AuthResponse](err)
	}
	s.setRefreshToken(user, refresh)

	g.Users().Update(user)
	if _, err := g.Commit(ctx); err != nil {
		return result.Internal[*AuthResponse](err)
	}
	return s.respond(user, refresh)
}

func (s *AuthService) setRefreshToken(user *models.User, refresh string) {
	digest := s.credentials.DigestRefreshToken(refresh)
	expiry := s.credentials.RefreshTokenExpiry()
	user.RefreshToken = &digest
	user.RefreshTokenExpiry = &expiry
}

func (s *AuthService) respond(user *models.User, refresh string) result.Result[*AuthResponse] {
	access, expiresAt, err := s.credentials.IssueAccessToken(user)
	if err != nil {
		return result.Internal[*AuthResponse](err)
	}
	return result.Success(&AuthResponse{
		User: toUserDTO(user),
		TokenResponse: &models.TokenResponse{
			AccessToken:  access,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.credentials.AccessTokenTTL().Seconds()),
			ExpiresAt:    expiresAt,
			RefreshToken: refresh,
		},
	})
}

func isTenantAdmin(id *models.Identity, tenantID uuid.UUID) bool {
	return id.HasRole(models.RoleAdmin) && id.BelongsTo(tenantID)
}

// allowLogin fails open when the throttle errors.
func (s *AuthService) allowLogin(ctx context.Context, key string) bool {
	if s.throttle == nil {
		return true
	}
	allowed, err := s.throttle.Allow(ctx, key)
	if err != nil {
		s.logger.Warn("login throttle unavailable", zap.Error(err))
		return true
	}
	return allowed
}

func (s *AuthService) recordFailure(ctx context.Context, key string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, key); err != nil {
		s.logger.Warn("failed to record login failure", zap.Error(err))
	}
}

func (s *AuthService) resetThrottle(ctx context.Context, key string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Reset(ctx, key); err != nil {
		s.logger.Warn("failed to reset login throttle", zap.Error(err))
	}
}
