package testutil

import (
	"net/url"
	"testing"
)

func TestDefaultTestDBConfig(t *testing.T) {
	t.Run("defaults to local test database port 55432", func(t *testing.T) {
		for _, k := range []string{"TEST_DB_HOST", "TEST_DB_PORT", "TEST_DB_USER", "TEST_DB_PASSWORD", "TEST_DB_NAME"} {
			t.Setenv(k, "")
		}
		cfg := DefaultTestDBConfig()
		if cfg.Host != "localhost" || cfg.Port != "55432" {
			t.Errorf("unexpected host/port: %s:%s", cfg.Host, cfg.Port)
		}
		if cfg.User != "equinetracker" || cfg.DBName != "equinetracker" {
			t.Errorf("unexpected user/db: %s/%s", cfg.User, cfg.DBName)
		}
	})

	t.Run("respects TEST_DB_PORT environment variable", func(t *testing.T) {
		t.Setenv("TEST_DB_PORT", "5432")
		if got := DefaultTestDBConfig().Port; got != "5432" {
			t.Errorf("Port = %s, want 5432", got)
		}
	})
}

func TestTestDBConfig_DSN(t *testing.T) {
	t.Setenv("DB_SSL_MODE", "")
	cfg := TestDBConfig{Host: "db", Port: "5432", User: "u", Password: "p@ss", DBName: "equine"}

	u, err := url.Parse(cfg.DSN("t_abcd"))
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	if u.Host != "db:5432" || u.Path != "/equine" {
		t.Errorf("unexpected host/path: %s %s", u.Host, u.Path)
	}
	if pw, _ := u.User.Password(); pw != "p@ss" {
		t.Errorf("password not preserved: %q", pw)
	}
	if got := u.Query().Get("search_path"); got != "t_abcd,public" {
		t.Errorf("search_path = %q", got)
	}
	if got := u.Query().Get("sslmode"); got != "disable" {
		t.Errorf("sslmode = %q", got)
	}
	if u2, _ := url.Parse(cfg.DSN("")); u2.Query().Has("search_path") {
		t.Error("search_path should be omitted without a schema")
	}
}
