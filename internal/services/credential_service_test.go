package services

import (
	"testing"
	"time"

	"jobtracker/internal/models"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestCredentials(clk clock.Clock) *CredentialService {
	return NewCredentialService(CredentialConfig{
		Secret:     "test-secret",
		Issuer:     "jobtracker-test",
		Audience:   "jobtracker-api-test",
		BcryptCost: bcrypt.MinCost,
	}, clk)
}

func testUser() *models.User {
	return &models.User{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Email:    "hr@acme.io",
		Role:     models.RoleHR,
	}
}

func TestCredentialService_PasswordRoundTrip(t *testing.T) {
	svc := newTestCredentials(nil)

	hash, err := svc.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	other, err := svc.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes must be salted")

	assert.True(t, svc.VerifyPassword("s3cret-pass", hash))
	assert.False(t, svc.VerifyPassword("wrong", hash))
	assert.False(t, svc.VerifyPassword("s3cret-pass", "not-a-bcrypt-hash"))
}

func TestCredentialService_AccessTokenRoundTrip(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Now())
	svc := newTestCredentials(clk)
	user := testUser()

	token, expiresAt, err := svc.IssueAccessToken(user)
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(time.Hour), expiresAt)

	id, ok := svc.ValidateToken(token)
	require.True(t, ok)
	assert.Equal(t, user.ID, id)

	claims, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	identity, err := claims.Identity()
	require.NoError(t, err)
	assert.Equal(t, user.Email, identity.Email)
	assert.Equal(t, models.RoleHR, identity.Role)
	assert.Equal(t, user.TenantID.String(), identity.TenantClaim)
}

func TestCredentialService_ExpiredToken(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Now())
	svc := newTestCredentials(clk)
	user := testUser()

	token, _, err := svc.IssueAccessToken(user)
	require.NoError(t, err)

	clk.Add(time.Hour + time.Second)

	id, ok := svc.ValidateToken(token)
	assert.False(t, ok)
	assert.Equal(t, uuid.Nil, id)

	_, err = svc.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCredentialService_RejectsForeignTokens(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Now())
	svc := newTestCredentials(clk)
	user := testUser()

	otherKey := NewCredentialService(CredentialConfig{
		Secret: "other-secret", Issuer: "jobtracker-test", Audience: "jobtracker-api-test",
	}, clk)
	token, _, err := otherKey.IssueAccessToken(user)
	require.NoError(t, err)
	_, ok := svc.ValidateToken(token)
	assert.False(t, ok, "wrong signature")

	otherAudience := NewCredentialService(CredentialConfig{
		Secret: "test-secret", Issuer: "jobtracker-test", Audience: "someone-else",
	}, clk)
	token, _, err = otherAudience.IssueAccessToken(user)
	require.NoError(t, err)
	_, ok = svc.ValidateToken(token)
	assert.False(t, ok, "wrong audience")

	otherIssuer := NewCredentialService(CredentialConfig{
		Secret: "test-secret", Issuer: "someone-else", Audience: "jobtracker-api-test",
	}, clk)
	token, _, err = otherIssuer.IssueAccessToken(user)
	require.NoError(t, err)
	_, ok = svc.ValidateToken(token)
	assert.False(t, ok, "wrong issuer")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": user.ID.String(), "iss": "jobtracker-test", "aud": "jobtracker-api-test",
		"exp": clk.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, ok = svc.ValidateToken(none)
	assert.False(t, ok, "alg none")

	_, ok = svc.ValidateToken("garbage")
	assert.False(t, ok)
}

func TestCredentialService_RefreshToken(t *testing.T) {
	clk := clock.NewMock()
	svc := newTestCredentials(clk)

	a, err := svc.IssueRefreshToken()
	require.NoError(t, err)
	b, err := svc.IssueRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 88)
	assert.Len(t, svc.DigestRefreshToken(a), 64)
	assert.Equal(t, svc.DigestRefreshToken(a), svc.DigestRefreshToken(a))
	assert.Equal(t, clk.Now().Add(7*24*time.Hour), svc.RefreshTokenExpiry())
}

func TestCredentialService_DummyHashMatchesNothing(t *testing.T) {
	svc := newTestCredentials(nil)

	hash := svc.DummyHash()
	require.NotEmpty(t, hash)
	assert.Equal(t, hash, svc.DummyHash())

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
	assert.False(t, svc.VerifyPassword("correct-horse-1", hash))
}

func TestAccessClaims_RejectsUnknownRole(t *testing.T) {
	claims := &AccessClaims{Role: "Superuser"}
	claims.Subject = uuid.NewString()

	_, err := claims.Identity()
	assert.ErrorIs(t, err, ErrInvalidToken)
}
