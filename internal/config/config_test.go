package config

import "testing"

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("missing DATABASE_URL must fail")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/app")

	if _, err := Load(); err == nil {
		t.Error("missing JWT_SECRET must fail")
	}

	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()

	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DatabaseURL != "postgres://localhost/app" || cfg.JWTSecret != "s3cret" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if cfg.Port != "8080" || cfg.Env != "development" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestAllowedOrigins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/app")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CLIENT_URL", "https://app.example.com")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()

	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := map[string]bool{
		"https://app.example.com": true,
		"https://a.example.com":   true,
		"https://b.example.com":   true,
	}

	for _, origin := range cfg.AllowedOrigins {
		delete(want, origin)
	}

	if len(want) != 0 {
		t.Errorf("origins missing from %v: %v", cfg.AllowedOrigins, want)
	}
}
