// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package sharedarea

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckTypesizeDataFirstRunWritesProfile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, CheckTypesizeData(dir))
	require.NoError(t, CheckTypesizeData(dir))
}

func TestCheckTypesizeDataDetectsMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteTypesizeData(dir))

	// Simulate a binary built with a different MAX_DIR_ALIAS by
	// corrupting the stamped profile.
	path := filepath.Join(dir, "TYPESIZE_DATA")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	corrupted := string(data) + "\nmax_dir_alias 999\n"
	require.NoError(t, os.WriteFile(path, []byte(corrupted), 0644))

	err = CheckTypesizeData(dir)
	require.Error(t, err)
}
