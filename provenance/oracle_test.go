// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package provenance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOracle_IsStdlibModule(t *testing.T) {
	o := NewOracle("/proj")

	assert.True(t, o.IsStdlibModule("os"))
	assert.True(t, o.IsStdlibModule("os.path"))
	assert.True(t, o.IsStdlibModule("pathlib"))
	assert.True(t, o.IsStdlibModule("collections.abc"))
	assert.False(t, o.IsStdlibModule("requests"))
	assert.False(t, o.IsStdlibModule("numpy"))
	assert.False(t, o.IsStdlibModule(""))
}

func TestOracle_IsExternalDependency(t *testing.T) {
	root := t.TempDir()
	o := NewOracle(root)

	assert.False(t, o.IsExternalDependency(filepath.Join(root, "app", "main.py")))
	assert.True(t, o.IsExternalDependency("/usr/lib/python3/site-packages/requests/api.py"))
	assert.True(t, o.IsExternalDependency(filepath.Join(filepath.Dir(root), "elsewhere", "x.py")))
	// Project-relative paths come from the analyzer's own discovery.
	assert.False(t, o.IsExternalDependency("app/main.py"))
	assert.False(t, o.IsExternalDependency(""))
}

func TestStubResolver_HasStub(t *testing.T) {
	root := t.TempDir()
	s := NewStubResolver()

	assert.False(t, s.HasStub("paymentlib", root))

	require.NoError(t, os.MkdirAll(filepath.Join(root, "stubs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stubs", "paymentlib.pyi"), []byte("class Client: ...\n"), 0o644))
	assert.True(t, s.HasStub("paymentlib", root))

	// Dotted modules map to nested stub paths.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "stubs", "vendor", "sdk"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stubs", "vendor", "sdk", "__init__.pyi"), []byte(""), 0o644))
	assert.True(t, s.HasStub("vendor.sdk", root))

	assert.False(t, s.HasStub("", root))
	assert.False(t, s.HasStub("paymentlib", ""))
}

func TestStubResolver_StubPath(t *testing.T) {
	s := NewStubResolver()
	got := s.StubPath("vendor.sdk", "/proj")
	assert.Equal(t, filepath.Join("/proj", "stubs", "vendor", "sdk.pyi"), got)
}
