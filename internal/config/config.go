// Package config implements §4.14: the scanner's on-disk defaults,
// loaded once at process start and then layered under CLI-flag
// overrides by the command layer (flags > file > these built-in
// defaults). Environment variables are not consulted for these values.
// The YAML shape and first-run "create it if
// missing" behaviour follow falcon's own pkg/core.Config/
// InitializeZapFolder convention.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DirName is where the config file lives, analogous to falcon's .zap
// folder but scoped to this scanner.
const DirName = ".apisentinel"

const fileName = "config.yaml"

// Config holds every scanner default the orchestrator and CLI consult
// before a caller's explicit overrides are applied.
type Config struct {
	Rate                   float64 `yaml:"rate"`
	RequestBudget          int     `yaml:"request_budget"`
	Dangerous              bool    `yaml:"dangerous"`
	FuzzAuth               bool    `yaml:"fuzz_auth"`
	CheckSchemaConformance bool    `yaml:"check_schema_conformance"`
	ReportTheme            string  `yaml:"report_theme"`
	WorkerPollSeconds      int     `yaml:"worker_poll_seconds"`
	JobTTLHours            int     `yaml:"job_ttl_hours"`
}

// Default returns the built-in scanner defaults, used both as the
// bottom of the override stack and to seed a first-run config file.
func Default() Config {
	return Config{
		Rate:                   1.0,
		RequestBudget:          400,
		Dangerous:              false,
		FuzzAuth:               false,
		CheckSchemaConformance: false,
		ReportTheme:            "dark",
		WorkerPollSeconds:      2,
		JobTTLHours:            24,
	}
}

// Path returns the config file's path under the given base directory
// (typically the user's working directory or home directory).
func Path(baseDir string) string {
	return filepath.Join(baseDir, DirName, fileName)
}

// Load reads the config file under baseDir, creating it with built-in
// defaults on first run if it does not exist yet.
func Load(baseDir string) (Config, error) {
	path := Path(baseDir)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		if writeErr := Save(baseDir, cfg); writeErr != nil {
			return Config{}, writeErr
		}
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to baseDir's config file, creating the containing
// directory if needed.
func Save(baseDir string, cfg Config) error {
	dir := filepath.Join(baseDir, DirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(Path(baseDir), data, 0644)
}
