package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Database      DatabaseConfig
	Schema        SchemaConfig
	AI            AIConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	GenerateTimeout time.Duration
	ExecuteTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// SchemaConfig bounds the schema summary fed to the model so the
// prompt stays inside the provider's context budget.
type SchemaConfig struct {
	MaxDatabases int
	MaxTables    int
	MaxColumns   int
}

type AIConfig struct {
	BaseURL        string
	APIKey         string
	FallbackModels []string
	Dialect        string
	Temperature    float64
	Timeout        time.Duration
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("QUERYSMITH_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid QUERYSMITH_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "QUERYSMITH_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYSMITH_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "QUERYSMITH_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "QUERYSMITH_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "QUERYSMITH_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "QUERYSMITH_GENERATE_TIMEOUT", &cfg.HTTP.GenerateTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "QUERYSMITH_EXECUTE_TIMEOUT", &cfg.HTTP.ExecuteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYSMITH_DB_DRIVER", &cfg.Database.Driver); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYSMITH_DB_DSN", &cfg.Database.DSN); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYSMITH_DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYSMITH_DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "QUERYSMITH_DB_CONN_MAX_IDLE_TIME", &cfg.Database.ConnMaxIdleTime); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "QUERYSMITH_DB_CONN_MAX_LIFETIME", &cfg.Database.ConnMaxLifetime); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYSMITH_SCHEMA_MAX_DATABASES", &cfg.Schema.MaxDatabases); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYSMITH_SCHEMA_MAX_TABLES", &cfg.Schema.MaxTables); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "QUERYSMITH_SCHEMA_MAX_COLUMNS", &cfg.Schema.MaxColumns); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYSMITH_AI_BASE_URL", &cfg.AI.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYSMITH_AI_API_KEY", &cfg.AI.APIKey); err != nil {
		return Config{}, err
	}
	// GEMINI_API_KEY is honored so an existing provider setup works
	// without renaming the variable.
	if cfg.AI.APIKey == "" {
		if err := applyString(lookup, "GEMINI_API_KEY", &cfg.AI.APIKey); err != nil {
			return Config{}, err
		}
	}
	if err := applyStringList(lookup, "QUERYSMITH_AI_FALLBACK_MODELS", &cfg.AI.FallbackModels); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYSMITH_AI_DIALECT", &cfg.AI.Dialect); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "QUERYSMITH_AI_TEMPERATURE", &cfg.AI.Temperature); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "QUERYSMITH_AI_TIMEOUT", &cfg.AI.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "QUERYSMITH_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "QUERYSMITH_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "QUERYSMITH_AUTH_REQUIRED", &cfg.Auth.Required); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "QUERYSMITH_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	switch cfg.Database.Driver {
	case "mysql", "postgres", "duckdb":
	default:
		return Config{}, fmt.Errorf("invalid QUERYSMITH_DB_DRIVER: %q", cfg.Database.Driver)
	}
	if cfg.Schema.MaxDatabases <= 0 || cfg.Schema.MaxTables <= 0 || cfg.Schema.MaxColumns <= 0 {
		return Config{}, fmt.Errorf("schema limits must be positive")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "querysmith-api"},
		HTTP: HTTPConfig{
			Address:         ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    90 * time.Second,
			IdleTimeout:     60 * time.Second,
			GenerateTimeout: 30 * time.Second,
			ExecuteTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "mysql",
			DSN:             "root:root@tcp(localhost:3306)/test_db",
			MaxOpenConns:    20,
			MaxIdleConns:    20,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Schema: SchemaConfig{
			MaxDatabases: 5,
			MaxTables:    5,
			MaxColumns:   5,
		},
		AI: AIConfig{
			BaseURL:        "https://generativelanguage.googleapis.com",
			FallbackModels: []string{"gemini-2.5-pro", "gemini-1.5", "gemini-1.0", "gemini-1"},
			Dialect:        "MySQL",
			Temperature:    0,
			Timeout:        15 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.Auth.Required = false
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyStringList(lookup LookupFunc, key string, dst *[]string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		values = append(values, part)
	}
	*dst = values
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
