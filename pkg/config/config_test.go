package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresIdentifierEndpoint(t *testing.T) {
	t.Setenv("MEDIA_IDENTIFIER_ENDPOINT_MEDIA_INFO", "")

	if _, err := Load("test"); err == nil {
		t.Fatal("expected Load to fail without an identifier endpoint")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MEDIA_IDENTIFIER_ENDPOINT_MEDIA_INFO", "http://identifier.local/media-info")

	cfg, err := Load("1.0.0")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Version != "1.0.0" {
		t.Errorf("unexpected version: %s", cfg.Version)
	}
	if cfg.Port != "10149" {
		t.Errorf("unexpected default port: %s", cfg.Port)
	}
	if cfg.Database.MaxConnections != 25 {
		t.Errorf("unexpected default max connections: %d", cfg.Database.MaxConnections)
	}
	if cfg.MediaIdentifier.Timeout() != 30*time.Second {
		t.Errorf("unexpected default timeout: %v", cfg.MediaIdentifier.Timeout())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MEDIA_IDENTIFIER_ENDPOINT_MEDIA_INFO", "http://identifier.local/media-info")
	t.Setenv("PORT", "8085")
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGPASSWORD", "s3cret")

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8085" {
		t.Errorf("unexpected port: %s", cfg.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("unexpected database host: %s", cfg.Database.Host)
	}
	if cfg.Database.Password != "s3cret" {
		t.Errorf("password must come from the environment")
	}
}

func TestDatabaseConfig_ConnectionStrings(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "cinelog",
		Password: "pw",
		Database: "cinelog",
		SSLMode:  "disable",
	}

	want := "host=localhost port=5432 user=cinelog password=pw dbname=cinelog sslmode=disable"
	if got := cfg.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}

	wantURL := "postgres://cinelog:pw@localhost:5432/cinelog?sslmode=disable"
	if got := cfg.URL(); got != wantURL {
		t.Errorf("URL() = %q, want %q", got, wantURL)
	}
}
