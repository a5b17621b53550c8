// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDNBRegistryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dnb := NewDNBRegistry(dir)
	require.NoError(t, dnb.Load())

	id1, err := dnb.Register("/var/afd/incoming/site-a")
	require.NoError(t, err)
	id2, err := dnb.Register("/var/afd/incoming/site-b")
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	again, err := dnb.Register("/var/afd/incoming/site-a")
	require.NoError(t, err)
	require.Equal(t, id1, again)

	path, err := dnb.Path(id2)
	require.NoError(t, err)
	require.Equal(t, "/var/afd/incoming/site-b", path)

	fresh := NewDNBRegistry(dir)
	require.NoError(t, fresh.Load())
	path, err = fresh.Path(id1)
	require.NoError(t, err)
	require.Equal(t, "/var/afd/incoming/site-a", path)
}

func TestFileMaskRegistryMatchHonorsNegation(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileMaskRegistry(dir)
	require.NoError(t, fm.Load())

	id, err := fm.Register([]string{"*.txt", "!secret*.txt"})
	require.NoError(t, err)

	ok, err := fm.Match(id, "report.txt")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = fm.Match(id, "secret-report.txt")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = fm.Match(id, "image.png")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestJIDRegistryCollapsesIdenticalSignatures(t *testing.T) {
	dir := t.TempDir()
	jid := NewJIDRegistry(dir)
	require.NoError(t, jid.Load())

	id1, err := jid.Register("ftp://anon@host-a/,*.dat,high", 1, 1, 0)
	require.NoError(t, err)
	id2, err := jid.Register("ftp://anon@host-a/,*.dat,high", 1, 1, 0)
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	entry, sig, err := jid.Lookup(id1)
	require.NoError(t, err)
	require.Equal(t, "ftp://anon@host-a/,*.dat,high", sig)
	require.EqualValues(t, 1, entry.DirIDIndex)
}

func TestJIDRegistryCompactDropsUnreferenced(t *testing.T) {
	dir := t.TempDir()
	jid := NewJIDRegistry(dir)
	require.NoError(t, jid.Load())

	liveID, err := jid.Register("keep-me", 1, 1, 0)
	require.NoError(t, err)
	_, err = jid.Register("drop-me", 1, 1, 0)
	require.NoError(t, err)

	require.NoError(t, jid.Compact(map[uint32]bool{liveID: true}))

	_, _, err = jid.Lookup(liveID)
	require.NoError(t, err)

	fresh := NewJIDRegistry(dir)
	require.NoError(t, fresh.Load())
	_, _, err = fresh.Lookup(JobID("drop-me"))
	require.Error(t, err)
}
