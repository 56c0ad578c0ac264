package config

import "testing"

func TestValidateSkippedOutsideProduction(t *testing.T) {
	cfg := &Config{App: AppConfig{Env: "development"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate in development: %v", err)
	}
}

func TestValidateRequiresSecretsInProduction(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "b")
	t.Setenv("CUSTOMER_TOKEN_SECRET", "c")

	cfg := &Config{App: AppConfig{Env: "production"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unset TOKEN_SECRET")
	}
}

func TestValidateRequiresDistinctSecrets(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "same")
	t.Setenv("REFRESH_TOKEN_SECRET", "same")
	t.Setenv("CUSTOMER_TOKEN_SECRET", "c")

	cfg := &Config{App: AppConfig{Env: "production"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicated secrets")
	}
}

func TestValidateAcceptsDistinctSecrets(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "a")
	t.Setenv("REFRESH_TOKEN_SECRET", "b")
	t.Setenv("CUSTOMER_TOKEN_SECRET", "c")

	cfg := &Config{App: AppConfig{Env: "production"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
