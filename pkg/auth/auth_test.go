// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthorizerGrantsFromUsersFile(t *testing.T) {
	a := &Authorizer{UsersFile: writeUsersFile(t, "alice afdcfg\n")}

	ok, err := a.Check("alice", "afdcfg")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = a.Check("alice", "set-pw")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAuthorizerAllowsEveryoneWithoutUsersFile(t *testing.T) {
	a := &Authorizer{UsersFile: "/nonexistent/afd.users"}

	ok, err := a.Check("anyone", "afdcfg")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAuthorizerDeniesUnknownUserWithoutLDAP(t *testing.T) {
	a := &Authorizer{UsersFile: writeUsersFile(t, "alice afdcfg\n")}

	ok, err := a.Check("mallory", "afdcfg")
	require.NoError(t, err)
	require.False(t, ok)
}
