package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Port:            "8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		SQLiteDBPath:    filepath.Join(t.TempDir(), "expenses.db"),
		DataBackend:     "sqlite",
		ExpensesPerPage: 20,
		RecentLimit:     10,
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATA_BACKEND", "EXPENSES_PER_PAGE", "RECENT_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DataBackend != "sqlite" {
		t.Errorf("DataBackend = %q, want sqlite", cfg.DataBackend)
	}
	if cfg.ExpensesPerPage != 20 {
		t.Errorf("ExpensesPerPage = %d, want 20", cfg.ExpensesPerPage)
	}
	if cfg.RecentLimit != 10 {
		t.Errorf("RecentLimit = %d, want 10", cfg.RecentLimit)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("EXPENSES_PER_PAGE", "50")
	t.Setenv("READ_TIMEOUT", "5s")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.DataBackend != "memory" {
		t.Errorf("DataBackend = %q, want memory", cfg.DataBackend)
	}
	if cfg.ExpensesPerPage != 50 {
		t.Errorf("ExpensesPerPage = %d, want 50", cfg.ExpensesPerPage)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.ReadTimeout)
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := validConfig(t).Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	mem := validConfig(t)
	mem.DataBackend = "memory"
	mem.SQLiteDBPath = ""
	if err := mem.Validate(); err != nil {
		t.Errorf("memory backend without db path rejected: %v", err)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := validConfig(t)
	cfg.Port = "not-a-port"
	cfg.DataBackend = "postgres"
	cfg.ExpensesPerPage = 0
	cfg.RecentLimit = 9999

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := err.Error()
	for _, want := range []string{"invalid port", "invalid data backend", "expenses per page", "recent limit"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestValidatePortRange(t *testing.T) {
	cfg := validConfig(t)
	cfg.Port = "70000"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range port")
	}
}
