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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_FullFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `project_root: `+dir+`
safe_roots:
  - legacy
overrides:
  - self.repo.db.connect
exclude:
  - generated
include_tests: true
workers: 4
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, []string{"legacy"}, cfg.SafeRoots)
	assert.Equal(t, []string{"self.repo.db.connect"}, cfg.Overrides)
	assert.Contains(t, cfg.Exclude, "generated")
	assert.True(t, cfg.IncludeTests)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoadConfig_RelativeRootResolvesAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	path := writeConfig(t, dir, "project_root: src\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src"), cfg.ProjectRoot)
}

func TestLoadConfig_DefaultsPreserved(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "workers: 2\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	// Unset keys keep their defaults, including the config directory as root.
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Contains(t, cfg.Exclude, "site-packages")
	assert.False(t, cfg.IncludeTests)
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "workers: 100\n")

	cfg, err := LoadConfig(path)
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "safe_roots: [unclosed\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), ConfigFileName))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/proj")
	assert.Equal(t, "/proj", cfg.ProjectRoot)
	assert.Contains(t, cfg.Exclude, ".venv")
	assert.Contains(t, cfg.Exclude, "__pycache__")
	assert.Empty(t, cfg.SafeRoots)
	assert.Zero(t, cfg.Workers)
}
