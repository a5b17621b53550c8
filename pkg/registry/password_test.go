// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestObfuscateRoundTrip(t *testing.T) {
	for _, plain := range []string{"", "a", "hunter2", "a-fairly-long-password-string"} {
		obf, err := Obfuscate(plain)
		require.NoError(t, err)
		require.Equal(t, plain, Deobfuscate(obf))
	}
}

func TestObfuscateRejectsOverlong(t *testing.T) {
	_, err := Obfuscate(string(make([]byte, MaxUserNameLength+1)))
	require.Error(t, err)
}

func TestPasswordStoreSetLookup(t *testing.T) {
	store := NewPasswordStore()
	require.NoError(t, store.Set("anon@ftp.example.com", "s3cr3t", false))

	plain, err := store.Lookup("anon@ftp.example.com")
	require.NoError(t, err)
	require.Equal(t, "s3cr3t", plain)

	_, err = store.Lookup("nobody@nowhere")
	require.Error(t, err)
}

func TestPasswordStoreRefusesOverwriteWithoutFlag(t *testing.T) {
	store := NewPasswordStore()
	require.NoError(t, store.Set("anon@ftp.example.com", "first", false))
	require.Error(t, store.Set("anon@ftp.example.com", "second", false))
	require.NoError(t, store.Set("anon@ftp.example.com", "second", true))

	plain, err := store.Lookup("anon@ftp.example.com")
	require.NoError(t, err)
	require.Equal(t, "second", plain)
}
