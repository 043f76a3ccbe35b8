package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobtracker/internal/models"
	"jobtracker/internal/pipeline"
	"jobtracker/internal/repositories"
	"jobtracker/internal/result"
	"jobtracker/internal/tenancy"
	"jobtracker/testhelpers"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

type MockLoginThrottle struct {
	mock.Mock
}

func (m *MockLoginThrottle) Allow(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockLoginThrottle) RecordFailure(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockLoginThrottle) Reset(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// operationsHarness wires the real pipeline, services and gateway over a pgxmock pool.
type operationsHarness struct {
	mock        pgxmock.PgxPoolIface
	clock       *clock.Mock
	credentials *CredentialService
	ops         *Operations
}

func newHarness(t *testing.T, throttle LoginThrottle) *operationsHarness {
	h := &operationsHarness{
		mock:  testhelpers.NewMockPool(t),
		clock: clock.NewMock(),
	}
	h.clock.Set(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	h.credentials = newTestCredentials(h.clock)

	logger := zaptest.NewLogger(t)
	store := repositories.NewStore(h.mock, h.clock)
	p := pipeline.New(pipeline.Config{Logger: logger, Clock: h.clock})
	h.ops = NewOperations(p,
		NewAuthService(store, h.credentials, throttle, h.clock, logger),
		NewJobService(store, h.clock),
		h.clock,
	)
	return h
}

type AuthServiceTestSuite struct {
	suite.Suite
	h        *operationsHarness
	throttle *MockLoginThrottle
	tenantID uuid.UUID
	context  context.Context
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.throttle = &MockLoginThrottle{}
	suite.throttle.Test(suite.T())
	suite.h = newHarness(suite.T(), suite.throttle)
	suite.tenantID = uuid.New()
	suite.context = context.Background()
}

func (suite *AuthServiceTestSuite) TearDownTest() {
	suite.throttle.AssertExpectations(suite.T())
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (suite *AuthServiceTestSuite) scope(identity *models.Identity) pipeline.Scope {
	return pipeline.Scope{Tenant: tenancy.ForTenant(suite.tenantID), Identity: identity}
}

func (suite *AuthServiceTestSuite) registerCommand() RegisterCommand {
	return RegisterCommand{
		Email:     "New@Acme.io",
		Password:  "correct-horse-1",
		FirstName: "New",
		LastName:  "User",
	}
}

func (suite *AuthServiceTestSuite) expectEmailCount(n int64) {
	suite.h.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE tenant_id = \$1 AND email = \$2`).
		WithArgs(suite.tenantID, "new@acme.io").
		WillReturnRows(testhelpers.CountRows(n))
}

func (suite *AuthServiceTestSuite) expectUserInsert(role string) {
	suite.h.mock.ExpectBegin()
	suite.h.mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), suite.tenantID, "new@acme.io",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			role, true,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.h.mock.ExpectCommit()
}

func (suite *AuthServiceTestSuite) TestRegister_Success() {
	suite.expectEmailCount(0)
	suite.expectUserInsert("Candidate")

	res := suite.h.ops.Register(suite.context, suite.scope(nil), suite.registerCommand())

	require.True(suite.T(), res.IsSuccess(), "%v", res.Failure())
	resp := res.Data()
	assert.Equal(suite.T(), "new@acme.io", resp.User.Email)
	assert.Equal(suite.T(), suite.tenantID, resp.User.TenantID)
	assert.Equal(suite.T(), models.RoleCandidate, resp.User.Role)
	assert.Equal(suite.T(), "Bearer", resp.TokenType)
	assert.Equal(suite.T(), 3600, resp.ExpiresIn)
	assert.NotEmpty(suite.T(), resp.RefreshToken)

	id, ok := suite.h.credentials.ValidateToken(resp.AccessToken)
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), resp.User.ID, id)

	claims, err := suite.h.credentials.ParseAccessToken(resp.AccessToken)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.tenantID.String(), claims.TenantID)
}

func (suite *AuthServiceTestSuite) TestRegister_DuplicateEmail() {
	suite.expectEmailCount(1)

	res := suite.h.ops.Register(suite.context, suite.scope(nil), suite.registerCommand())

	require.False(suite.T(), res.IsSuccess())
	assert.Equal(suite.T(), result.KindDuplicate, res.Failure().Kind)
	assert.Equal(suite.T(), "a user with this email already exists", res.Failure().Message)
}

func (suite *AuthServiceTestSuite) TestRegister_TenantRequired() {
	res := suite.h.ops.Register(suite.context, pipeline.Scope{Tenant: tenancy.New()}, suite.registerCommand())

	assert.Equal(suite.T(), result.KindTenantRequired, res.Failure().Kind)
	assert.Equal(suite.T(), "tenant context is required", res.Failure().Message)
}

func (suite *AuthServiceTestSuite) TestRegister_ValidationFailure() {
	cmd := suite.registerCommand()
	cmd.Email = "not-an-email"
	cmd.Password = "short"

	res := suite.h.ops.Register(suite.context, suite.scope(nil), cmd)

	require.Equal(suite.T(), result.KindValidation, res.Failure().Kind)
	assert.Contains(suite.T(), res.Failure().FieldErrors, "email")
	assert.Contains(suite.T(), res.Failure().FieldErrors, "password")
}

func (suite *AuthServiceTestSuite) expectUserCount(n int64) {
	suite.h.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE tenant_id = \$1$`).
		WithArgs(suite.tenantID).
		WillReturnRows(testhelpers.CountRows(n))
}

func (suite *AuthServiceTestSuite) TestRegister_ElevatedRoleRequiresTenantAdmin() {
	cmd := suite.registerCommand()
	cmd.Role = models.RoleHR

	suite.expectUserCount(1)
	res := suite.h.ops.Register(suite.context, suite.scope(nil), cmd)
	assert.Equal(suite.T(), result.KindForbidden, res.Failure().Kind)

	otherTenantAdmin := &models.Identity{UserID: uuid.New(), Role: models.RoleAdmin, TenantClaim: uuid.NewString()}
	suite.expectUserCount(1)
	res = suite.h.ops.Register(suite.context, suite.scope(otherTenantAdmin), cmd)
	assert.Equal(suite.T(), result.KindForbidden, res.Failure().Kind)

	hr := &models.Identity{UserID: uuid.New(), Role: models.RoleHR, TenantClaim: suite.tenantID.String()}
	suite.expectUserCount(3)
	res = suite.h.ops.Register(suite.context, suite.scope(hr), cmd)
	assert.Equal(suite.T(), result.KindForbidden, res.Failure().Kind)
	assert.Equal(suite.T(), "only a tenant administrator can assign this role", res.Failure().Message)
}

func (suite *AuthServiceTestSuite) TestRegister_FirstUserOfTenantMayBeAdmin() {
	cmd := suite.registerCommand()
	cmd.Role = models.RoleAdmin

	suite.expectUserCount(0)
	suite.expectEmailCount(0)
	suite.expectUserInsert("Admin")

	res := suite.h.ops.Register(suite.context, suite.scope(nil), cmd)

	require.True(suite.T(), res.IsSuccess(), "%v", res.Failure())
	assert.Equal(suite.T(), models.RoleAdmin, res.Data().User.Role)
}

func (suite *AuthServiceTestSuite) TestRegister_UserCountFailure() {
	cmd := suite.registerCommand()
	cmd.Role = models.RoleAdmin

	suite.h.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE tenant_id = \$1$`).
		WithArgs(suite.tenantID).
		WillReturnError(errors.New("connection refused"))

	res := suite.h.ops.Register(suite.context, suite.scope(nil), cmd)

	assert.Equal(suite.T(), result.KindInternal, res.Failure().Kind)
}

func (suite *AuthServiceTestSuite) TestRegister_AdminCanAssignRole() {
	admin := &models.Identity{UserID: uuid.New(), Role: models.RoleAdmin, TenantClaim: suite.tenantID.String()}
	cmd := suite.registerCommand()
	cmd.Role = models.RoleHR

	suite.expectEmailCount(0)
	suite.expectUserInsert("HR")

	res := suite.h.ops.Register(suite.context, suite.scope(admin), cmd)

	require.True(suite.T(), res.IsSuccess(), "%v", res.Failure())
	assert.Equal(suite.T(), models.RoleHR, res.Data().User.Role)
}

func (suite *AuthServiceTestSuite) existingUser(password string) *models.User {
	hash, err := suite.h.credentials.HashPassword(password)
	require.NoError(suite.T(), err)
	return testhelpers.NewUser(suite.tenantID, "jane@acme.io", hash, models.RoleHR)
}

func (suite *AuthServiceTestSuite) expectFindByEmail(users ...*models.User) {
	suite.h.mock.ExpectQuery(`SELECT (.+) FROM users WHERE tenant_id = \$1 AND email = \$2 LIMIT 1`).
		WithArgs(suite.tenantID, "jane@acme.io").
		WillReturnRows(testhelpers.UserRows(users...))
}

func (suite *AuthServiceTestSuite) expectUserUpdate(user *models.User) {
	suite.h.mock.ExpectBegin()
	suite.h.mock.ExpectExec(`UPDATE users SET (.+) WHERE id = \$11 AND tenant_id = \$12`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			user.ID, suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.h.mock.ExpectCommit()
}

func (suite *AuthServiceTestSuite) throttleKey() string {
	return suite.tenantID.String() + ":jane@acme.io"
}

func (suite *AuthServiceTestSuite) TestLogin_Success_RotatesRefreshToken() {
	user := suite.existingUser("correct-horse-1")
	old := "old-digest"
	user.RefreshToken = &old

	suite.throttle.On("Allow", mock.Anything, suite.throttleKey()).Return(true, nil).Once()
	suite.throttle.On("Reset", mock.Anything, suite.throttleKey()).Return(nil).Once()
	suite.expectFindByEmail(user)
	suite.expectUserUpdate(user)

	res := suite.h.ops.Login(suite.context, suite.scope(nil), LoginCommand{Email: "JANE@acme.io", Password: "correct-horse-1"})

	require.True(suite.T(), res.IsSuccess(), "%v", res.Failure())
	resp := res.Data()
	assert.Equal(suite.T(), user.ID, resp.User.ID)
	assert.True(suite.T(), suite.h.clock.Now().Add(time.Hour).Equal(resp.ExpiresAt))

	id, ok := suite.h.credentials.ValidateToken(resp.AccessToken)
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), user.ID, id)
}

func (suite *AuthServiceTestSuite) TestLogin_SameMessageForUnknownEmailAndWrongPassword() {
	user := suite.existingUser("correct-horse-1")

	suite.throttle.On("Allow", mock.Anything, suite.throttleKey()).Return(true, nil).Twice()
	suite.throttle.On("RecordFailure", mock.Anything, suite.throttleKey()).Return(nil).Twice()

	suite.expectFindByEmail(user)
	wrongPassword := suite.h.ops.Login(suite.context, suite.scope(nil), LoginCommand{Email: "jane@acme.io", Password: "wrong-password"})

	suite.expectFindByEmail()
	unknownEmail := suite.h.ops.Login(suite.context, suite.scope(nil), LoginCommand{Email: "jane@acme.io", Password: "correct-horse-1"})

	require.False(suite.T(), wrongPassword.IsSuccess())
	require.False(suite.T(), unknownEmail.IsSuccess())
	assert.Equal(suite.T(), result.KindInvalidCredentials, wrongPassword.Failure().Kind)
	assert.Equal(suite.T(), wrongPassword.Failure().Kind, unknownEmail.Failure().Kind)
	assert.Equal(suite.T(), "invalid email or password", wrongPassword.Failure().Message)
	assert.Equal(suite.T(), wrongPassword.Failure().Message, unknownEmail.Failure().Message)
}

func (suite *AuthServiceTestSuite) TestLogin_InactiveAccount() {
	user := suite.existingUser("correct-horse-1")
	user.IsActive = false

	suite.throttle.On("Allow", mock.Anything, suite.throttleKey()).Return(true, nil).Once()
	suite.expectFindByEmail(user)

	res := suite.h.ops.Login(suite.context, suite.scope(nil), LoginCommand{Email: "jane@acme.io", Password: "correct-horse-1"})

	assert.Equal(suite.T(), result.KindForbidden, res.Failure().Kind)
	assert.Equal(suite.T(), "user account is deactivated", res.Failure().Message)
}

func (suite *AuthServiceTestSuite) TestLogin_Throttled() {
	suite.throttle.On("Allow", mock.Anything, suite.throttleKey()).Return(false, nil).Once()

	res := suite.h.ops.Login(suite.context, suite.scope(nil), LoginCommand{Email: "jane@acme.io", Password: "whatever"})

	assert.Equal(suite.T(), result.KindTooManyAttempts, res.Failure().Kind)
}

func (suite *AuthServiceTestSuite) TestLogin_ThrottleErrorFailsOpen() {
	user := suite.existingUser("correct-horse-1")

	suite.throttle.On("Allow", mock.Anything, suite.throttleKey()).Return(false, errors.New("redis down")).Once()
	suite.throttle.On("Reset", mock.Anything, suite.throttleKey()).Return(errors.New("redis down")).Once()
	suite.expectFindByEmail(user)
	suite.expectUserUpdate(user)

	res := suite.h.ops.Login(suite.context, suite.scope(nil), LoginCommand{Email: "jane@acme.io", Password: "correct-horse-1"})

	assert.True(suite.T(), res.IsSuccess())
}

func (suite *AuthServiceTestSuite) TestLogin_TenantRequired() {
	res := suite.h.ops.Login(suite.context, pipeline.Scope{}, LoginCommand{Email: "jane@acme.io", Password: "x"})

	assert.Equal(suite.T(), result.KindTenantRequired, res.Failure().Kind)
}

func (suite *AuthServiceTestSuite) expectFindByRefreshToken(token string, users ...*models.User) {
	suite.h.mock.ExpectQuery(`SELECT (.+) FROM users WHERE tenant_id = \$1 AND refresh_token = \$2 LIMIT 1`).
		WithArgs(suite.tenantID, suite.h.credentials.DigestRefreshToken(token)).
		WillReturnRows(testhelpers.UserRows(users...))
}

func (suite *AuthServiceTestSuite) TestRefreshToken_Success() {
	user := suite.existingUser("correct-horse-1")
	digest := suite.h.credentials.DigestRefreshToken("old-token")
	expiry := suite.h.clock.Now().Add(time.Hour)
	user.RefreshToken = &digest
	user.RefreshTokenExpiry = &expiry

	suite.expectFindByRefreshToken("old-token", user)
	suite.expectUserUpdate(user)

	res := suite.h.ops.RefreshToken(suite.context, suite.scope(nil), RefreshTokenCommand{RefreshToken: "old-token"})

	require.True(suite.T(), res.IsSuccess(), "%v", res.Failure())
	assert.NotEqual(suite.T(), "old-token", res.Data().RefreshToken)
}

func (suite *AuthServiceTestSuite) TestRefreshToken_Expired() {
	user := suite.existingUser("correct-horse-1")
	digest := suite.h.credentials.DigestRefreshToken("old-token")
	expiry := suite.h.clock.Now().Add(-time.Minute)
	user.RefreshToken = &digest
	user.RefreshTokenExpiry = &expiry

	suite.expectFindByRefreshToken("old-token", user)

	res := suite.h.ops.RefreshToken(suite.context, suite.scope(nil), RefreshTokenCommand{RefreshToken: "old-token"})

	assert.Equal(suite.T(), result.KindUnauthenticated, res.Failure().Kind)
	assert.Equal(suite.T(), "invalid or expired refresh token", res.Failure().Message)
}

func (suite *AuthServiceTestSuite) TestRefreshToken_Unknown() {
	suite.expectFindByRefreshToken("nope")

	res := suite.h.ops.RefreshToken(suite.context, suite.scope(nil), RefreshTokenCommand{RefreshToken: "nope"})

	assert.Equal(suite.T(), result.KindUnauthenticated, res.Failure().Kind)
}
