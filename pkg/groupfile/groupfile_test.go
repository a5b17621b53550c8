// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package groupfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `[ops-team]
alice@example.com
bob@example.com
# a comment line is ignored
carol@example.com

[other-group]
dave@example.com
`

func TestParseSplitsGroupsOnBlankLine(t *testing.T) {
	s, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	members, ok := s.Members("ops-team")
	require.True(t, ok)
	require.Equal(t, []string{"alice@example.com", "bob@example.com", "carol@example.com"}, members)

	other, ok := s.Members("other-group")
	require.True(t, ok)
	require.Equal(t, []string{"dave@example.com"}, other)
}

func TestParseStopsGroupAtNextHeaderWithoutBlankLine(t *testing.T) {
	content := "[a]\none@example.com\n[b]\ntwo@example.com\n"
	s, err := Parse(strings.NewReader(content))
	require.NoError(t, err)

	a, _ := s.Members("a")
	require.Equal(t, []string{"one@example.com"}, a)
	b, _ := s.Members("b")
	require.Equal(t, []string{"two@example.com"}, b)
}

func TestMembersReportsGroupNotFound(t *testing.T) {
	s, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	_, ok := s.Members("does-not-exist")
	require.False(t, ok)
}

func TestCleanMemberLineStripsSpacesAndComments(t *testing.T) {
	content := "[g]\n  al ice @ example . com  # trailing note\n"
	s, err := Parse(strings.NewReader(content))
	require.NoError(t, err)

	members, ok := s.Members("g")
	require.True(t, ok)
	require.Equal(t, []string{"alice@example.com"}, members)
}

func TestCleanMemberLineHonorsBackslashEscape(t *testing.T) {
	content := "[g]\n\\#not-a-comment@example.com\n"
	s, err := Parse(strings.NewReader(content))
	require.NoError(t, err)

	members, ok := s.Members("g")
	require.True(t, ok)
	require.Equal(t, []string{"#not-a-comment@example.com"}, members)
}

// TestHeaderNewlineOffsetDoesNotShiftMembership pins the exact member
// list get_group_list.c's two scanning passes (count, then build) agree
// on, both anchored at the header line's own trailing newline rather
// than the first member character — the "NOTE: NOT + 1" in the
// original. Both passes rewind to that same anchor, so the quirk shifts
// an internal index without shifting which characters end up in which
// member.
func TestHeaderNewlineOffsetDoesNotShiftMembership(t *testing.T) {
	content := "[pins]\nfirst@example.com\nsecond@example.com\n"
	s, err := Parse(strings.NewReader(content))
	require.NoError(t, err)

	members, ok := s.Members("pins")
	require.True(t, ok)
	require.Equal(t, []string{"first@example.com", "second@example.com"}, members)
}

func TestExpandRecipientExpandsGroupPrefix(t *testing.T) {
	s, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	members, expanded := s.ExpandRecipient("group:ops-team")
	require.True(t, expanded)
	require.Equal(t, []string{"alice@example.com", "bob@example.com", "carol@example.com"}, members)
}

func TestExpandRecipientPassesThroughPlainRecipient(t *testing.T) {
	s, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	members, expanded := s.ExpandRecipient("ftp://user@host/path")
	require.False(t, expanded)
	require.Equal(t, []string{"ftp://user@host/path"}, members)
}
