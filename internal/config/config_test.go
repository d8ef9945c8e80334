package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "planloom.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabasePath != "planloom.db" || cfg.LogLevel != "info" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.UtilizationWindowDays != 30 {
		t.Errorf("expected 30-day default window, got %d", cfg.UtilizationWindowDays)
	}
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
database_path: /var/lib/planloom/data.db
default_project: p1
log_level: debug
utilization_window_days: 14
narrative:
  model: claude-sonnet-4-5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabasePath != "/var/lib/planloom/data.db" {
		t.Errorf("unexpected db path: %s", cfg.DatabasePath)
	}
	if cfg.DefaultProject != "p1" || cfg.LogLevel != "debug" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.UtilizationWindowDays != 14 {
		t.Errorf("expected 14-day window, got %d", cfg.UtilizationWindowDays)
	}
	if cfg.Narrative.Model != "claude-sonnet-4-5" {
		t.Errorf("unexpected narrative model: %s", cfg.Narrative.Model)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "default_project: p9\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultProject != "p9" {
		t.Errorf("expected override applied, got %q", cfg.DefaultProject)
	}
	if cfg.DatabasePath != "planloom.db" {
		t.Errorf("expected default db path kept, got %q", cfg.DatabasePath)
	}
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := writeConfig(t, "databse_path: typo.db\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestLoad_InvalidWindow(t *testing.T) {
	path := writeConfig(t, "utilization_window_days: -1\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "utilization_window_days") {
		t.Errorf("expected window validation error, got %v", err)
	}
}
