package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/medledger")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if !cfg.IsDev() {
		t.Error("expected default env to be development")
	}
	if cfg.LedgerTimeout != 30*time.Second {
		t.Errorf("expected default ledger timeout 30s, got %s", cfg.LedgerTimeout)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	_, err := Load()
	if err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestValidate_ProductionRequiresExternalEndpoints(t *testing.T) {
	cfg := &Config{
		Env:            "production",
		LedgerTimeout:  30 * time.Second,
		MaxUploadBytes: 1024,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production config without signing key")
	}

	cfg.AuthSigningKey = "secret"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production config without ledger gateway")
	}

	cfg.LedgerGatewayURL = "http://ledger:7051"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production config without content store")
	}

	cfg.ContentStoreURL = "http://ipfs:5001"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_ProductionAcceptsJWKSInsteadOfSigningKey(t *testing.T) {
	cfg := &Config{
		Env:              "production",
		LedgerTimeout:    30 * time.Second,
		MaxUploadBytes:   1024,
		AuthJWKSURL:      "https://issuer.example/.well-known/jwks.json",
		LedgerGatewayURL: "http://ledger:7051",
		ContentStoreURL:  "http://ipfs:5001",
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error with JWKS URL and no signing key: %v", err)
	}
}

func TestValidate_LedgerTimeout(t *testing.T) {
	cfg := &Config{Env: "development", MaxUploadBytes: 1024}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-positive ledger timeout")
	}
}
