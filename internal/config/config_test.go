package config

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestLoadServer_Defaults(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DatabaseDriver != "sqlite" {
		t.Errorf("DatabaseDriver = %q, want sqlite", cfg.DatabaseDriver)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Errorf("JWTExpiry = %v, want 24h", cfg.JWTExpiry)
	}
	if cfg.RateLimitBurst != 10 {
		t.Errorf("RateLimitBurst = %d, want 10", cfg.RateLimitBurst)
	}
	if !cfg.IsDev() {
		t.Error("expected development environment by default")
	}
	if got := cfg.PatchDisabledResources(); !reflect.DeepEqual(got, []string{"appointments"}) {
		t.Errorf("PatchDisabledResources() = %v, want [appointments]", got)
	}
}

func TestLoadServer_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_EXPIRY", "90m")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("PATCH_DISABLED", " appointments, diagnoses ,")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.JWTExpiry != 90*time.Minute {
		t.Errorf("JWTExpiry = %v, want 90m", cfg.JWTExpiry)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("RateLimitRPS = %v, want 2.5", cfg.RateLimitRPS)
	}
	want := []string{"appointments", "diagnoses"}
	if got := cfg.PatchDisabledResources(); !reflect.DeepEqual(got, want) {
		t.Errorf("PatchDisabledResources() = %v, want %v", got, want)
	}
}

func TestLoadServer_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENV", "production")

	_, err := LoadServer()
	if !errors.Is(err, ErrInsecureSecret) {
		t.Fatalf("expected ErrInsecureSecret, got: %v", err)
	}

	t.Setenv("JWT_SECRET", "a-real-secret")
	if _, err := LoadServer(); err != nil {
		t.Fatalf("LoadServer() unexpected error: %v", err)
	}
}

func TestLoadServer_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")

	_, err := LoadServer()
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("expected ErrUnsupportedDriver, got: %v", err)
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("CLINIC_API_URL", " https://clinic.example.com ")
	t.Setenv("CLINIC_HTTP_TIMEOUT", "3s")
	t.Setenv("CLINIC_ENRICH_CONCURRENCY", "4")
	t.Setenv("CLINIC_LOG_PRETTY", "false")

	cfg, err := LoadClient(NewClientViper())
	if err != nil {
		t.Fatalf("LoadClient() unexpected error: %v", err)
	}

	if cfg.APIURL != "https://clinic.example.com" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Errorf("HTTPTimeout = %v, want 3s", cfg.HTTPTimeout)
	}
	if cfg.EnrichConcurrency != 4 {
		t.Errorf("EnrichConcurrency = %d, want 4", cfg.EnrichConcurrency)
	}
	if cfg.LogPretty {
		t.Error("expected LogPretty to be false")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.StatePath == "" {
		t.Error("expected a default state path")
	}
}

func TestLoadClient_OverrideWins(t *testing.T) {
	t.Setenv("CLINIC_API_URL", "http://from-env:8080")

	v := NewClientViper()
	v.Set("CLINIC_API_URL", "http://from-flag:8080")

	cfg, err := LoadClient(v)
	if err != nil {
		t.Fatalf("LoadClient() unexpected error: %v", err)
	}
	if cfg.APIURL != "http://from-flag:8080" {
		t.Errorf("APIURL = %q, want the override", cfg.APIURL)
	}
}

func TestLoadClient_EmptyURL(t *testing.T) {
	v := NewClientViper()
	v.Set("CLINIC_API_URL", "  ")

	if _, err := LoadClient(v); !errors.Is(err, ErrMissingAPIURL) {
		t.Fatalf("expected ErrMissingAPIURL, got: %v", err)
	}
}
