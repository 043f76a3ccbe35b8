// Package config loads process settings from the environment, with an
// optional config file named by CONFIG_FILE.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/random"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required in production")

type Config struct {
	Port            string
	Environment     string
	LogLevel        string
	ShutdownTimeout time.Duration
	AllowOrigins    []string

	DatabaseURL   string
	DBMaxConns    int32
	DBApplySchema bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret          string
	JWTSecretGenerated bool
	JWTIssuer          string
	JWTAudience        string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	BcryptCost         int

	SlowOperationThreshold time.Duration
	LoginMaxAttempts       int
	LoginAttemptWindow     time.Duration

	JobCloseInterval   time.Duration
	TokenPurgeInterval time.Duration

	OTLPEndpoint string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_APPLY_SCHEMA", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ISSUER", "jobtracker")
	v.SetDefault("JWT_AUDIENCE", "jobtracker-api")
	v.SetDefault("ACCESS_TOKEN_TTL", "1h")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SLOW_OPERATION_THRESHOLD", "500ms")
	v.SetDefault("LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("LOGIN_ATTEMPT_WINDOW", "15m")
	v.SetDefault("JOB_CLOSE_INTERVAL", "15m")
	v.SetDefault("TOKEN_PURGE_INTERVAL", "1h")
}

// Load reads the configuration. A missing JWT secret is replaced by a random
// one outside production so local runs work out of the box.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Port:            v.GetString("PORT"),
		Environment:     strings.ToLower(v.GetString("ENVIRONMENT")),
		LogLevel:        v.GetString("LOG_LEVEL"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		AllowOrigins:    splitList(v.GetString("CORS_ALLOW_ORIGINS")),

		DatabaseURL:   v.GetString("DATABASE_URL"),
		DBMaxConns:    v.GetInt32("DB_MAX_CONNS"),
		DBApplySchema: v.GetBool("DB_APPLY_SCHEMA"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTIssuer:       v.GetString("JWT_ISSUER"),
		JWTAudience:     v.GetString("JWT_AUDIENCE"),
		AccessTokenTTL:  v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL: v.GetDuration("REFRESH_TOKEN_TTL"),
		BcryptCost:      v.GetInt("BCRYPT_COST"),

		SlowOperationThreshold: v.GetDuration("SLOW_OPERATION_THRESHOLD"),
		LoginMaxAttempts:       v.GetInt("LOGIN_MAX_ATTEMPTS"),
		LoginAttemptWindow:     v.GetDuration("LOGIN_ATTEMPT_WINDOW"),

		JobCloseInterval:   v.GetDuration("JOB_CLOSE_INTERVAL"),
		TokenPurgeInterval: v.GetDuration("TOKEN_PURGE_INTERVAL"),

		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, ErrMissingJWTSecret
		}
		cfg.JWTSecret = random.String(32)
		cfg.JWTSecretGenerated = true
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
