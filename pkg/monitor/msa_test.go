// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	table := NewTable(dir)

	gen1, err := table.Register("remote1", 5)
	require.NoError(t, err)
	require.NotZero(t, gen1)

	gen2, err := table.Register("remote1", 5)
	require.NoError(t, err)
	require.Zero(t, gen2, "re-registering an existing alias must be a no-op")

	entry, err := table.Entry("remote1")
	require.NoError(t, err)
	require.Equal(t, int32(5), entry.MaxConnections)
}

func TestUpdatePersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	table := NewTable(dir)
	_, err := table.Register("remote2", 1)
	require.NoError(t, err)

	_, err = table.Update("remote2", func(e *MSAEntry) {
		e.FilesCount = 42
		e.ConnectStatus = 1
	})
	require.NoError(t, err)

	reloaded := NewTable(dir)
	require.NoError(t, reloaded.Load())
	entry, err := reloaded.Entry("remote2")
	require.NoError(t, err)
	require.EqualValues(t, 42, entry.FilesCount)
	require.EqualValues(t, 1, entry.ConnectStatus)
}

func TestUpdateUnknownAliasFails(t *testing.T) {
	dir := t.TempDir()
	table := NewTable(dir)
	_, err := table.Update("ghost", func(e *MSAEntry) {})
	require.Error(t, err)
}

func TestPushSysLogDropsOldest(t *testing.T) {
	var e MSAEntry
	for i := byte(0); i < SysLogRingSize+2; i++ {
		PushSysLog(&e, 'A'+i)
	}
	require.Equal(t, byte('A'+SysLogRingSize+1), e.SysLogRing[SysLogRingSize-1])
}
