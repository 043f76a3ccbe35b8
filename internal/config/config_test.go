package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/jobtracker")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.False(t, cfg.DBApplySchema)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.SlowOperationThreshold)
	assert.Equal(t, 5, cfg.LoginMaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.JobCloseInterval)
	assert.Equal(t, []string{"*"}, cfg.AllowOrigins)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.False(t, cfg.JWTSecretGenerated)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/jobs")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_APPLY_SCHEMA", "true")
	t.Setenv("SLOW_OPERATION_THRESHOLD", "2s")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.DBApplySchema)
	assert.Equal(t, 2*time.Second, cfg.SlowOperationThreshold)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowOrigins)
	assert.Zero(t, cfg.LoginMaxAttempts)
}

func TestLoad_GeneratesSecretOutsideProduction(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/jobtracker")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.JWTSecretGenerated)
	assert.Len(t, cfg.JWTSecret, 32)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/jobtracker")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ENVIRONMENT", "Production")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.EqualError(t, err, "DATABASE_URL is required")
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobtracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("DATABASE_URL: postgres://file/jobs\nJWT_SECRET: from-file\nLOG_LEVEL: debug\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	for _, key := range []string{"DATABASE_URL", "JWT_SECRET", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://file/jobs", cfg.DatabaseURL)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "debug", cfg.LogLevel)
}
