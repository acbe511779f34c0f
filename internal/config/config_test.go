package config

import (
	"os"
	"testing"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error when DATABASE_URL is unset")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/cliniq")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.DBMaxConns != 20 || cfg.DBMinConns != 5 {
		t.Errorf("unexpected pool defaults: max=%d min=%d", cfg.DBMaxConns, cfg.DBMinConns)
	}
	if !cfg.IsDev() {
		t.Error("expected IsDev to be true by default")
	}
}

func TestLoad_CORSOriginsSplit(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/cliniq")
	os.Setenv("CORS_ORIGINS", "http://a.example,http://b.example")
	defer os.Unsetenv("DATABASE_URL")
	defer os.Unsetenv("CORS_ORIGINS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSOrigins)
	}
	if cfg.CORSOrigins[1] != "http://b.example" {
		t.Errorf("unexpected second origin: %s", cfg.CORSOrigins[1])
	}
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	cfg := &Config{Env: "production"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production without JWT_SECRET")
	}
}

func TestValidate_ShortSecretRejected(t *testing.T) {
	cfg := &Config{Env: "production", JWTSecret: "too-short"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for short JWT_SECRET")
	}
}

func TestValidate_DevWithoutSecretOK(t *testing.T) {
	cfg := &Config{Env: "development"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_LongSecretOK(t *testing.T) {
	cfg := &Config{Env: "production", JWTSecret: "0123456789abcdef0123456789abcdef"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
