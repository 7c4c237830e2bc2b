// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file when
// present), loads them into structured Go types and validates them so the
// service fails fast on bad or missing configuration.
//
// Keys use the OBSRECORDS_ prefix and "." for nesting, e.g.
// OBSRECORDS_DATABASE.HOST -> database.host -> Config.Database.Host.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads `.env` into the process environment.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "OBSRECORDS_"

// ServiceName labels logs, traces and the New Relic application.
const ServiceName = "obsrecords"

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional; defaults are injected
// when it is absent.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Ingest        IngestConfig         `koanf:"ingest"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are in seconds.
//
// IngestRateLimit caps schedule ingest requests per second and client IP;
// zero means one per second.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
	IngestRateLimit    float64  `koanf:"ingest_rate_limit" validate:"gte=0"`
}

// DatabaseConfig selects the store and holds its connection parameters.
//
// The postgres fields are only required when Driver is "postgres".
// Pool settings are optional; zero keeps the pgxpool default.
type DatabaseConfig struct {
	Driver          string `koanf:"driver" validate:"required,oneof=postgres sqlite"`
	Host            string `koanf:"host" validate:"required_if=Driver postgres"`
	Port            int    `koanf:"port" validate:"required_if=Driver postgres"`
	User            string `koanf:"user" validate:"required_if=Driver postgres"`
	Password        string `koanf:"password" validate:"required_if=Driver postgres"`
	Name            string `koanf:"name" validate:"required_if=Driver postgres"`
	SSLMode         string `koanf:"ssl_mode" validate:"required_if=Driver postgres"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time"`
	SQLitePath      string `koanf:"sqlite_path" validate:"required_if=Driver sqlite"`
}

// RedisConfig contains Redis connection details ("host:port").
// Redis backs the asynq notification queue.
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// AuthConfig stores authentication-related secrets.
type AuthConfig struct {
	SecretKey string `koanf:"secret_key" validate:"required"`
}

// IntegrationConfig holds third-party service credentials.
//
// Feedback acknowledgements are only sent when ResendAPIKey is set.
// NotifyAddress, when set, receives a blind copy of each one.
type IntegrationConfig struct {
	ResendAPIKey  string `koanf:"resend_api_key"`
	FromAddress   string `koanf:"from_address" validate:"omitempty,email"`
	NotifyAddress string `koanf:"notify_address" validate:"omitempty,email"`
}

// IngestConfig locates the schedule source files.
//
// Relative file names resolve against SourceDir. An empty file name falls
// back to "<table>.csv".
type IngestConfig struct {
	SourceDir      string `koanf:"source_dir"`
	ScheduleFile   string `koanf:"schedule_file"`
	InstrumentFile string `koanf:"instrument_file"`
	OperatorFile   string `koanf:"operator_file"`
	ProgramFile    string `koanf:"program_file"`
	EngProgramFile string `koanf:"engprogram_file"`
}

// Files maps each schedule table name to its configured file name.
func (c IngestConfig) Files() map[string]string {
	return map[string]string{
		"schedule":   c.ScheduleFile,
		"instrument": c.InstrumentFile,
		"operator":   c.OperatorFile,
		"program":    c.ProgramFile,
		"engprogram": c.EngProgramFile,
	}
}

// LoadConfig loads configuration from environment variables, validates it
// and applies defaults.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment always follow the primary config.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
