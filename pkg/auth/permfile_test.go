// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeUsersFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "afd.users")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestPermissionsGrantsMatchingUser(t *testing.T) {
	path := writeUsersFile(t, "alice afdcfg set-pw\nbob fra-view\n")

	tokens, outcome, err := Permissions(path, "alice")
	require.NoError(t, err)
	require.Equal(t, Granted, outcome)
	require.Equal(t, []string{"afdcfg", "set-pw"}, tokens)
	require.True(t, Has(tokens, "afdcfg"))
	require.False(t, Has(tokens, "del-cache"))
}

func TestPermissionsFoldsContinuationLine(t *testing.T) {
	path := writeUsersFile(t, "alice afdcfg\n  set-pw\nbob fra-view\n")

	tokens, outcome, err := Permissions(path, "alice")
	require.NoError(t, err)
	require.Equal(t, Granted, outcome)
	require.Equal(t, []string{"afdcfg", "set-pw"}, tokens)
}

func TestPermissionsUnknownUserIsNotFound(t *testing.T) {
	path := writeUsersFile(t, "alice afdcfg\n")

	_, outcome, err := Permissions(path, "mallory")
	require.NoError(t, err)
	require.Equal(t, NotFound, outcome)
}

func TestPermissionsMissingFileAllowsAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "afd.users")

	tokens, outcome, err := Permissions(path, "alice")
	require.NoError(t, err)
	require.Equal(t, AllowAll, outcome)
	require.Nil(t, tokens)
}

func TestPermissionsFirstMatchWins(t *testing.T) {
	path := writeUsersFile(t, "alice afdcfg\nalice fra-view\n")

	tokens, outcome, err := Permissions(path, "alice")
	require.NoError(t, err)
	require.Equal(t, Granted, outcome)
	require.Equal(t, []string{"afdcfg"}, tokens)
}
