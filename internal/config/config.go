package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const devJWTSecret = "dev-secret-change-in-production"

var (
	ErrInsecureSecret    = errors.New("JWT_SECRET must be set in production environment")
	ErrUnsupportedDriver = errors.New("unsupported DATABASE_DRIVER")
	ErrMissingAPIURL     = errors.New("CLINIC_API_URL is required")
)

// Client configures the clinic CLI.
type Client struct {
	APIURL            string        `mapstructure:"CLINIC_API_URL"`
	StatePath         string        `mapstructure:"CLINIC_STATE_PATH"`
	LogLevel          string        `mapstructure:"CLINIC_LOG_LEVEL"`
	LogPretty         bool          `mapstructure:"CLINIC_LOG_PRETTY"`
	HTTPTimeout       time.Duration `mapstructure:"CLINIC_HTTP_TIMEOUT"`
	EnrichConcurrency int           `mapstructure:"CLINIC_ENRICH_CONCURRENCY"`
}

// Server configures the development API server.
type Server struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	DatabaseDriver string        `mapstructure:"DATABASE_DRIVER"`
	DatabaseDSN    string        `mapstructure:"DATABASE_DSN"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	JWTExpiry      time.Duration `mapstructure:"JWT_EXPIRY"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	PatchDisabled  string        `mapstructure:"PATCH_DISABLED"`
}

// NewClientViper returns a viper instance with the client defaults and
// environment bindings in place. Callers may bind flags onto it before
// calling LoadClient.
func NewClientViper() *viper.Viper {
	v := newViper()

	v.SetDefault("CLINIC_API_URL", "http://localhost:8080")
	v.SetDefault("CLINIC_STATE_PATH", defaultStatePath())
	v.SetDefault("CLINIC_LOG_LEVEL", "warn")
	v.SetDefault("CLINIC_LOG_PRETTY", true)
	v.SetDefault("CLINIC_HTTP_TIMEOUT", "15s")
	v.SetDefault("CLINIC_ENRICH_CONCURRENCY", 0)

	v.BindEnv("CLINIC_API_URL")
	v.BindEnv("CLINIC_STATE_PATH")
	v.BindEnv("CLINIC_LOG_LEVEL")
	v.BindEnv("CLINIC_LOG_PRETTY")
	v.BindEnv("CLINIC_HTTP_TIMEOUT")
	v.BindEnv("CLINIC_ENRICH_CONCURRENCY")

	return v
}

// LoadClient reads the client configuration from v.
func LoadClient(v *viper.Viper) (Client, error) {
	var cfg Client
	if err := v.Unmarshal(&cfg); err != nil {
		return Client{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.APIURL = strings.TrimSpace(cfg.APIURL)
	if cfg.APIURL == "" {
		return Client{}, ErrMissingAPIURL
	}
	return cfg, nil
}

// LoadServer reads the server configuration from the environment and an
// optional .env file in the working directory.
func LoadServer() (Server, error) {
	v := newViper()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:clinic.db")
	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("JWT_EXPIRY", "24h")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("PATCH_DISABLED", "appointments")

	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("DATABASE_DRIVER")
	v.BindEnv("DATABASE_DSN")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("JWT_EXPIRY")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("PATCH_DISABLED")

	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return Server{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that must not start.
func (c Server) Validate() error {
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == devJWTSecret) {
		return ErrInsecureSecret
	}
	switch c.DatabaseDriver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.DatabaseDriver)
	}
	return nil
}

func (c Server) IsDev() bool {
	return c.Env == "development"
}

func (c Server) IsProduction() bool {
	return c.Env == "production"
}

// PatchDisabledResources lists the collections served without a PATCH route.
func (c Server) PatchDisabledResources() []string {
	var out []string
	for _, name := range strings.Split(c.PatchDisabled, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()
	// Try reading .env file, but don't fail if missing.
	_ = v.ReadInConfig()
	return v
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "clinicdesk-state.db"
	}
	return filepath.Join(dir, "clinicdesk", "state.db")
}
