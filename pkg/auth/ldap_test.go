// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupCNMatchesFindsLeadingCN(t *testing.T) {
	groups := []string{
		"CN=afd-admins,OU=Groups,DC=example,DC=com",
		"CN=afd-operators,OU=Groups,DC=example,DC=com",
	}

	require.True(t, groupCNMatches(groups, "afd-admins"))
	require.True(t, groupCNMatches(groups, "afd-operators"))
	require.False(t, groupCNMatches(groups, "afd-viewers"))
}

func TestGroupCNMatchesEmptyGroupsIsNeverAMember(t *testing.T) {
	require.False(t, groupCNMatches(nil, "afd-admins"))
}

func TestNewGroupClientDoesNotDial(t *testing.T) {
	c := NewGroupClient(GroupClientConfig{URL: "ldaps://directory.invalid:636"})
	require.NotNil(t, c)
}
