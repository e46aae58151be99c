package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Permission snapshot policies.
const (
	SnapshotPerToken   = "token"
	SnapshotPerRequest = "request"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Sweep     SweepConfig
	CORS      CORSConfig
	Log       LogConfig
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the two independent signing secrets and their lifetimes.
type JWTConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	Issuer        string
}

// AuthConfig covers identity and authorization policy.
type AuthConfig struct {
	AdminRole          string
	DefaultRole        string
	MinPasswordLength  int
	AuditSessionEvents bool
	PermissionSnapshot string
}

// RateLimitConfig bounds login attempts per client.
type RateLimitConfig struct {
	LoginLimit  int
	LoginWindow time.Duration
}

// SweepConfig schedules removal of expired refresh tokens.
type SweepConfig struct {
	Interval time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		AccessSecret:  v.GetString("JWT_ACCESS_SECRET"),
		AccessTTL:     parseDuration(v.GetString("JWT_ACCESS_TTL"), 15*time.Minute),
		RefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
		RefreshTTL:    parseDuration(v.GetString("JWT_REFRESH_TTL"), 7*24*time.Hour),
		Issuer:        v.GetString("JWT_ISSUER"),
	}

	cfg.Auth = AuthConfig{
		AdminRole:          v.GetString("AUTH_ADMIN_ROLE"),
		DefaultRole:        v.GetString("AUTH_DEFAULT_ROLE"),
		MinPasswordLength:  v.GetInt("AUTH_MIN_PASSWORD_LENGTH"),
		AuditSessionEvents: v.GetBool("AUTH_AUDIT_SESSION_EVENTS"),
		PermissionSnapshot: strings.ToLower(v.GetString("AUTH_PERMISSION_SNAPSHOT")),
	}

	cfg.RateLimit = RateLimitConfig{
		LoginLimit:  v.GetInt("LOGIN_RATE_LIMIT"),
		LoginWindow: parseDuration(v.GetString("LOGIN_RATE_WINDOW"), time.Minute),
	}

	cfg.Sweep = SweepConfig{
		Interval: parseDuration(v.GetString("REFRESH_SWEEP_INTERVAL"), time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

// Validate checks invariants the auth engine depends on.
func (c *Config) Validate() error {
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("jwt access and refresh secrets are required")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("jwt access and refresh secrets must differ")
	}
	if c.Env == EnvProduction && (strings.HasPrefix(c.JWT.AccessSecret, "dev_") || strings.HasPrefix(c.JWT.RefreshSecret, "dev_")) {
		return errors.New("development jwt secrets are not allowed in production")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("jwt ttl values must be positive")
	}
	if c.Auth.AdminRole == "" || c.Auth.DefaultRole == "" {
		return errors.New("admin and default role names are required")
	}
	if c.Auth.AdminRole == c.Auth.DefaultRole {
		return errors.New("admin and default role names must differ")
	}
	if c.Auth.MinPasswordLength < 1 {
		return errors.New("minimum password length must be positive")
	}
	switch c.Database.Driver {
	case DriverPostgres, "":
	case DriverMemory:
		if c.Env == EnvProduction {
			return errors.New("memory storage is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Auth.PermissionSnapshot {
	case SnapshotPerToken, SnapshotPerRequest:
	default:
		return fmt.Errorf("unknown permission snapshot policy %q", c.Auth.PermissionSnapshot)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "task_track")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_ACCESS_SECRET", "dev_access_secret")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_SECRET", "dev_refresh_secret")
	v.SetDefault("JWT_REFRESH_TTL", "168h")
	v.SetDefault("JWT_ISSUER", "tasktrack-api")

	v.SetDefault("AUTH_ADMIN_ROLE", "admin")
	v.SetDefault("AUTH_DEFAULT_ROLE", "user")
	v.SetDefault("AUTH_MIN_PASSWORD_LENGTH", 8)
	v.SetDefault("AUTH_AUDIT_SESSION_EVENTS", false)
	v.SetDefault("AUTH_PERMISSION_SNAPSHOT", SnapshotPerToken)

	v.SetDefault("LOGIN_RATE_LIMIT", 5)
	v.SetDefault("LOGIN_RATE_WINDOW", "1m")
	v.SetDefault("REFRESH_SWEEP_INTERVAL", "1h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
