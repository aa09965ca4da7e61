package config

import (
	"os"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Rate != 1.0 || cfg.RequestBudget != 400 || cfg.ReportTheme != "dark" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadCreatesDefaultsOnFirstRun(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults on first run, got %+v", cfg)
	}

	if _, err := os.Stat(Path(dir)); err != nil {
		t.Fatalf("expected config file to be created: %v", err)
	}
}

func TestLoadReadsExistingOverrides(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Rate = 5
	cfg.ReportTheme = "light"
	if err := Save(dir, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Rate != 5 || loaded.ReportTheme != "light" {
		t.Fatalf("expected overrides to round-trip, got %+v", loaded)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, Default()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(Path(dir)); err != nil {
		t.Fatalf("expected config dir/file to exist: %v", err)
	}
}
