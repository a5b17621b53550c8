// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package afdconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFileRoundTripsRepeatedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "AFD_CONFIG")
	content := "# comment\nMAX_CONNECTIONS_DEF 64\n\nALDA_DAEMON_DEF -f query1\nALDA_DAEMON_DEF -f query2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := ParseFile(path)
	require.NoError(t, err)

	v, ok := cfg.First(KeyMaxConnections)
	require.True(t, ok)
	require.Equal(t, "64", v)
	require.Equal(t, 64, cfg.IntOr(KeyMaxConnections, 0))

	all := cfg.All(KeyAldaDaemon)
	require.Equal(t, []string{"-f query1", "-f query2"}, all)
}

func TestParseFileMissingReturnsConfigNotFound(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestIntOrFallsBackOnUnparsableValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "AFD_CONFIG")
	require.NoError(t, os.WriteFile(path, []byte("MAX_ERRORS_DEF not-a-number\n"), 0644))

	cfg, err := ParseFile(path)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.IntOr(KeyMaxErrors, 5))
}
