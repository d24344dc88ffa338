package config

import (
	"testing"
	"time"
)

func TestValidateRequiresPortAndSecret(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty config")
	}

	cfg = &Config{Port: "8460"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing JWT secret")
	}

	cfg = &Config{Port: "8460", JWTSecret: "dev-secret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected development config to validate, got %v", err)
	}
}

func TestValidateProductionRejectsDefaults(t *testing.T) {
	cfg := &Config{
		Port:      "8460",
		JWTSecret: "your-secret-key-change-in-production",
		Env:       "production",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected production validation to reject default secret")
	}

	cfg.JWTSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected production validation to reject short secret")
	}

	cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
	cfg.DBPassword = "password"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected production validation to reject default DB password")
	}

	cfg.DBPassword = "s3cure-enough"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid production config, got %v", err)
	}
}

func TestProjectorIntervalDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.ProjectorInterval(); got != 200*time.Millisecond {
		t.Fatalf("expected default 200ms, got %v", got)
	}

	cfg.ProjectorIntervalMs = 50
	if got := cfg.ProjectorInterval(); got != 50*time.Millisecond {
		t.Fatalf("expected 50ms, got %v", got)
	}
}
