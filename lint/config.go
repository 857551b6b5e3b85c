// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the conventional per-project configuration file.
const ConfigFileName = ".demeter.yaml"

// Config is the analyzer configuration, supplied by an external loader
// and treated as read-only by the analysis core.
//
// Thread Safety: Treat as immutable after Load.
type Config struct {
	// ProjectRoot is the absolute path used for local/external
	// classification and stub lookups.
	ProjectRoot string `yaml:"project_root" validate:"required"`

	// SafeRoots are allow-listed module/QName prefixes excluded from
	// coupling checks. Empty selects the built-in defaults.
	SafeRoots []string `yaml:"safe_roots"`

	// Overrides are per-callable QName overrides that suppress
	// violations for specific callees.
	Overrides []string `yaml:"overrides"`

	// Exclude are path substrings to skip during discovery.
	Exclude []string `yaml:"exclude"`

	// IncludeTests analyzes test files too. The in-scope exclusion for
	// test receivers still applies; this only widens discovery.
	IncludeTests bool `yaml:"include_tests"`

	// Workers bounds parallel per-file analysis (0 = GOMAXPROCS).
	Workers int `yaml:"workers" validate:"gte=0,lte=64"`
}

// DefaultConfig returns a configuration for a project root with all
// defaults applied.
func DefaultConfig(projectRoot string) *Config {
	return &Config{
		ProjectRoot: filepath.Clean(projectRoot),
		Exclude:     []string{".venv", "venv", "site-packages", "__pycache__", ".git"},
	}
}

// LoadConfig reads and validates a YAML configuration file.
//
// Description:
//
//	Malformed files and validation failures are configuration faults and
//	fail loudly here; they are never the analysis core's responsibility.
//
// Outputs:
//
//	*Config - The validated configuration.
//	error   - Non-nil on read, parse, or validation failure.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig(filepath.Dir(path))
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	if cfg.ProjectRoot != "" && !filepath.IsAbs(cfg.ProjectRoot) {
		cfg.ProjectRoot = filepath.Join(filepath.Dir(path), cfg.ProjectRoot)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}
