// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCMLRoundTrip(t *testing.T) {
	dir := t.TempDir()

	ids, err := ReadCML(dir)
	require.NoError(t, err)
	require.Nil(t, ids)

	want := []uint32{42, 7, 1000}
	require.NoError(t, WriteCML(dir, want))

	got, err := ReadCML(dir)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestCMLRepublishOverwrites(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, WriteCML(dir, []uint32{1, 2, 3}))
	require.NoError(t, WriteCML(dir, []uint32{9}))

	got, err := ReadCML(dir)
	require.NoError(t, err)
	require.Equal(t, []uint32{9}, got)
}

func TestLiveJobIDsFromSlotsDedupesAndSkipsEmpty(t *testing.T) {
	slots := [][]uint32{
		{5, noIDSlot, 7},
		{7, noIDSlot},
		{noIDSlot, noIDSlot},
	}

	got := LiveJobIDsFromSlots(slots)
	require.ElementsMatch(t, []uint32{5, 7}, got)
}
