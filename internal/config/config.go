// Package config provides centralized configuration management for hostpanel.
// Configuration is read from HOSTPANEL_* environment variables, optionally
// layered over a config file, with sensible defaults. Invalid configuration
// fails fast with every problem listed.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/jscorp/hostpanel/internal/plugins"
)

// EnvPrefix is prepended to every configuration key when read from the
// environment.
const EnvPrefix = "HOSTPANEL"

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Port int

	// Storage backend: memory, sqlite, postgres, badger or s3
	Storage string

	// SQL configuration
	DB         string // SQLite file path
	DBDSN      string // Full PostgreSQL DSN (takes precedence over individual params)
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	// Badger configuration
	BadgerDir string

	// S3 configuration
	S3Bucket          string
	S3Region          string
	S3Endpoint        string // Custom endpoint for MinIO/self-hosted S3
	S3Prefix          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// Admin gate
	AdminUsername  string
	AdminPassword  string
	SessionSecret  string
	SessionTTL     time.Duration
	RememberTTL    time.Duration
	LoginPath      string
	LoginRateLimit float64 // Login attempts per second per IP (0 = disabled)
	LoginBurst     int

	// Seeding
	Seed     bool
	SeedFile string

	// Logging
	LogLevel  string
	LogFormat string
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors holds multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Default values
const (
	DefaultPort           = 8080
	DefaultStorage        = "sqlite"
	DefaultDBPath         = "hostpanel.db"
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "disable"
	DefaultBadgerDir      = "hostpanel-badger"
	DefaultS3Region       = "us-east-1"
	DefaultS3Prefix       = "hostpanel/"
	DefaultAdminUsername  = "admin"
	DefaultAdminPassword  = "admin123"
	DefaultSessionTTL     = 24 * time.Hour
	DefaultRememberTTL    = 30 * 24 * time.Hour
	DefaultLoginPath      = "/admin-login.html"
	DefaultLoginRateLimit = float64(1)
	DefaultLoginBurst     = 5
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

var storageBackends = []string{"memory", "sqlite", "postgres", "badger", "s3"}

func defaults() map[string]any {
	return map[string]any{
		"port":             DefaultPort,
		"storage":          DefaultStorage,
		"db":               DefaultDBPath,
		"db_port":          DefaultDBPort,
		"db_sslmode":       DefaultDBSSLMode,
		"badger_dir":       DefaultBadgerDir,
		"s3_region":        DefaultS3Region,
		"s3_prefix":        DefaultS3Prefix,
		"admin_username":   DefaultAdminUsername,
		"admin_password":   DefaultAdminPassword,
		"session_ttl":      DefaultSessionTTL,
		"remember_ttl":     DefaultRememberTTL,
		"login_path":       DefaultLoginPath,
		"login_rate_limit": DefaultLoginRateLimit,
		"login_burst":      DefaultLoginBurst,
		"seed":             true,
		"log_level":        DefaultLogLevel,
		"log_format":       DefaultLogFormat,
	}
}

// stringKeys have no default but must still be resolvable from the
// environment.
var stringKeys = []string{
	"db_dsn", "db_host", "db_name", "db_user", "db_password",
	"s3_bucket", "s3_endpoint", "s3_access_key_id", "s3_secret_access_key",
	"session_secret", "seed_file",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	for _, key := range stringKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads configuration from the environment, and from the file named by
// HOSTPANEL_CONFIG_FILE when set, then validates it.
func Load() (*Config, error) {
	v := newViper()

	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, ValidationErrors{{
				Field:   EnvPrefix + "_CONFIG_FILE",
				Message: fmt.Sprintf("cannot read %q: %v", path, err),
			}}
		}
	}

	cfg, parseErrors := fromViper(v)
	if len(parseErrors) > 0 {
		return nil, parseErrors
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}

	return cfg, nil
}

// parser collects conversion failures instead of stopping at the first one.
type parser struct {
	v    *viper.Viper
	errs ValidationErrors
}

func (p *parser) fail(key, format string, args ...any) {
	p.errs = append(p.errs, ValidationError{
		Field:   envName(key),
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *parser) str(key string) string {
	return strings.TrimSpace(p.v.GetString(key))
}

func (p *parser) int(key string) int {
	n, err := cast.ToIntE(p.v.Get(key))
	if err != nil {
		p.fail(key, "invalid integer: %q", p.v.GetString(key))
	}
	return n
}

func (p *parser) float(key string) float64 {
	f, err := cast.ToFloat64E(p.v.Get(key))
	if err != nil {
		p.fail(key, "invalid rate: %q (must be a number)", p.v.GetString(key))
	}
	return f
}

func (p *parser) bool(key string) bool {
	b, err := cast.ToBoolE(p.v.Get(key))
	if err != nil {
		p.fail(key, "invalid boolean: %q", p.v.GetString(key))
	}
	return b
}

func (p *parser) duration(key string) time.Duration {
	d, err := cast.ToDurationE(p.v.Get(key))
	if err != nil {
		p.fail(key, "invalid duration: %q (expected a value like 24h or 30m)", p.v.GetString(key))
	}
	return d
}

func fromViper(v *viper.Viper) (*Config, ValidationErrors) {
	p := &parser{v: v}
	cfg := &Config{
		Port:              p.int("port"),
		Storage:           strings.ToLower(p.str("storage")),
		DB:                p.str("db"),
		DBDSN:             p.str("db_dsn"),
		DBHost:            p.str("db_host"),
		DBPort:            p.int("db_port"),
		DBName:            p.str("db_name"),
		DBUser:            p.str("db_user"),
		DBPassword:        v.GetString("db_password"),
		DBSSLMode:         p.str("db_sslmode"),
		BadgerDir:         p.str("badger_dir"),
		S3Bucket:          p.str("s3_bucket"),
		S3Region:          p.str("s3_region"),
		S3Endpoint:        p.str("s3_endpoint"),
		S3Prefix:          p.str("s3_prefix"),
		S3AccessKeyID:     p.str("s3_access_key_id"),
		S3SecretAccessKey: v.GetString("s3_secret_access_key"),
		AdminUsername:     p.str("admin_username"),
		AdminPassword:     v.GetString("admin_password"),
		SessionSecret:     v.GetString("session_secret"),
		SessionTTL:        p.duration("session_ttl"),
		RememberTTL:       p.duration("remember_ttl"),
		LoginPath:         p.str("login_path"),
		LoginRateLimit:    p.float("login_rate_limit"),
		LoginBurst:        p.int("login_burst"),
		Seed:              p.bool("seed"),
		SeedFile:          p.str("seed_file"),
		LogLevel:          strings.ToLower(p.str("log_level")),
		LogFormat:         strings.ToLower(p.str("log_format")),
	}
	return cfg, p.errs
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(key)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(key, format string, args ...any) {
		errs = append(errs, ValidationError{Field: envName(key), Message: fmt.Sprintf(format, args...)})
	}

	if c.Port < 1 || c.Port > 65535 {
		add("port", "port must be between 1 and 65535, got %d", c.Port)
	}

	switch c.Storage {
	case "memory":
	case "sqlite":
		if c.DB == "" {
			add("db", "database path cannot be empty")
		}
	case "postgres":
		if c.DBDSN == "" && (c.DBHost == "" || c.DBName == "" || c.DBUser == "") {
			add("db_dsn", "PostgreSQL requires either %s or all of %s, %s, and %s",
				envName("db_dsn"), envName("db_host"), envName("db_name"), envName("db_user"))
		}
	case "badger":
	case "s3":
		if c.S3Bucket == "" {
			add("s3_bucket", "S3 bucket is required when storage is \"s3\"")
		}
	default:
		add("storage", "unsupported storage backend: %q (must be one of %s)",
			c.Storage, strings.Join(storageBackends, ", "))
	}

	if (c.S3AccessKeyID != "") != (c.S3SecretAccessKey != "") {
		errs = append(errs, ValidationError{
			Field:   envName("s3_access_key_id") + " / " + envName("s3_secret_access_key"),
			Message: "both S3 access key ID and secret access key must be set together",
		})
	}

	if c.AdminUsername == "" {
		add("admin_username", "admin username cannot be empty")
	}
	if c.AdminPassword == "" {
		add("admin_password", "admin password cannot be empty")
	}
	if c.SessionTTL <= 0 {
		add("session_ttl", "session TTL must be positive: %v", c.SessionTTL)
	}
	if c.RememberTTL <= 0 {
		add("remember_ttl", "remember TTL must be positive: %v", c.RememberTTL)
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		add("login_path", "login path must start with /: %q", c.LoginPath)
	}
	if c.LoginRateLimit < 0 {
		add("login_rate_limit", "rate must be non-negative: %v", c.LoginRateLimit)
	}
	if c.LoginBurst < 1 {
		add("login_burst", "burst must be positive: %d", c.LoginBurst)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		add("log_level", "unsupported log level: %q (must be debug, info, warn or error)", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		add("log_format", "unsupported log format: %q (must be text or json)", c.LogFormat)
	}

	return errs
}

// DSN returns the database connection string for the SQL backends. For
// SQLite it is the file path. For PostgreSQL it is the explicit DSN if set,
// otherwise one built from the individual parameters.
func (c *Config) DSN() string {
	switch c.Storage {
	case "postgres":
		if c.DBDSN != "" {
			return c.DBDSN
		}
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
	default:
		return c.DB
	}
}

// IsSQL returns true if the storage backend is a SQL database.
func (c *Config) IsSQL() bool {
	return c.Storage == "sqlite" || c.Storage == "postgres"
}

// RegistryConfig translates the storage settings into plugin configuration.
func (c *Config) RegistryConfig() *plugins.RegistryConfig {
	rc := plugins.DefaultRegistryConfig()
	rc.Storage = c.Storage
	rc.SetStorageConfig("memory", map[string]string{})
	rc.SetStorageConfig("sqlite", map[string]string{"dsn": c.DB})
	if c.Storage == "postgres" {
		rc.SetStorageConfig("postgres", map[string]string{"dsn": c.DSN()})
	}
	rc.SetStorageConfig("badger", map[string]string{"dir": c.BadgerDir})
	rc.SetStorageConfig("s3", map[string]string{
		"bucket":            c.S3Bucket,
		"region":            c.S3Region,
		"endpoint":          c.S3Endpoint,
		"prefix":            c.S3Prefix,
		"access_key_id":     c.S3AccessKeyID,
		"secret_access_key": c.S3SecretAccessKey,
	})
	return rc
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MustLoad loads configuration and exits if it fails.
// Use this for application startup where configuration errors are fatal.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: failed to load configuration\n\n%s\n\nSee .env.example for configuration options.\n", err)
		os.Exit(1)
	}
	return cfg
}

// LoadWithFlags loads configuration from the environment, then applies
// command-line flag overrides.
func LoadWithFlags(port int, storage, db, seedFile string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if port != 0 && port != DefaultPort {
		cfg.Port = port
	}
	if storage != "" {
		cfg.Storage = strings.ToLower(storage)
	}
	if db != "" && db != DefaultDBPath {
		cfg.DB = db
	}
	if seedFile != "" {
		cfg.SeedFile = seedFile
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}

	return cfg, nil
}
