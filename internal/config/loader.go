package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"specgate/internal/domain"
)

// marshalIndent and writeFile are used by WriteDefault and Save; tests may replace to force errors.
var (
	marshalIndent = json.MarshalIndent
	writeFile     = os.WriteFile
)

// WriteDefault writes a default Config to path (e.g. specgate.json). Paths are not created.
func WriteDefault(path string) error {
	cfg := &domain.Config{
		Specs: domain.SpecsConfig{
			Dir:       "specs",
			Namespace: "default",
		},
		Validator: domain.ValidatorConfig{
			UnknownFieldPolicy: "warn",
		},
		Watcher: domain.WatcherConfig{
			DebounceMS:  100,
			StrictBatch: true,
		},
		Infra: domain.InfraConfig{LogFormat: "text", LogLevel: "info"},
	}
	data, err := marshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, data, 0644)
}

// Load reads path (e.g. specgate.json), unmarshals into domain.Config, and
// cleans all path fields to mitigate path traversal. Returns error if file is
// missing or invalid JSON.
func Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	var c domain.Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config parse: %w", err)
	}
	CleanPaths(&c)
	applyDefaults(&c)
	return &c, nil
}

// CleanPaths applies filepath.Clean to all path fields in cfg to prevent path traversal.
func CleanPaths(cfg *domain.Config) {
	if cfg == nil {
		return
	}
	cfg.Specs.Dir = filepath.Clean(cfg.Specs.Dir)
}

// applyDefaults fills fields a hand-edited config commonly leaves out.
func applyDefaults(cfg *domain.Config) {
	if cfg.Specs.Namespace == "" {
		cfg.Specs.Namespace = "default"
	}
	if cfg.Validator.UnknownFieldPolicy == "" {
		cfg.Validator.UnknownFieldPolicy = "warn"
	}
	if cfg.Watcher.DebounceMS <= 0 {
		cfg.Watcher.DebounceMS = 100
	}
	if cfg.Infra.LogFormat == "" {
		cfg.Infra.LogFormat = "text"
	}
	if cfg.Infra.LogLevel == "" {
		cfg.Infra.LogLevel = "info"
	}
}

// Save writes cfg to path as JSON (so operators can persist policy edits).
func Save(path string, cfg *domain.Config) error {
	if cfg == nil {
		return fmt.Errorf("config save: nil config")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config save mkdir: %w", err)
	}
	data, err := marshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config save marshal: %w", err)
	}
	if err := writeFile(path, data, 0644); err != nil {
		return fmt.Errorf("config save write: %w", err)
	}
	return nil
}
