// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package fsa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	tbl := NewTable(t.TempDir())
	require.NoError(t, tbl.Load())
	return tbl
}

func TestReorderSeedsDefaultsForNewHosts(t *testing.T) {
	tbl := newTestTable(t)

	_, err := tbl.Reorder([]string{"h1"}, map[string]HostDefaults{
		"h1": {Alias: "h1", AllowedTransfers: 2, MaxErrors: 3},
	})
	require.NoError(t, err)

	h1, err := tbl.Host("h1")
	require.NoError(t, err)
	require.EqualValues(t, 2, h1.AllowedTransfers)
	for _, js := range h1.JobStatus {
		require.Equal(t, int32(Disconnect), js.ConnectStatus)
		require.Equal(t, NoID, js.ProcID)
	}

	// S2: h2 inserted at position 0, h1's live state carried forward.
	err = tbl.AdjustCounters("h1", 1, 100)
	require.NoError(t, err)

	_, err = tbl.Reorder([]string{"h2", "h1"}, map[string]HostDefaults{
		"h2": {Alias: "h2", AllowedTransfers: 1, MaxErrors: 1},
	})
	require.NoError(t, err)

	h1Again, err := tbl.Host("h1")
	require.NoError(t, err)
	require.EqualValues(t, 1, h1Again.TotalFileCounter)

	h2, err := tbl.Host("h2")
	require.NoError(t, err)
	require.EqualValues(t, 1, h2.AllowedTransfers)
}

func TestClaimAndReleaseSlot(t *testing.T) {
	tbl := newTestTable(t)
	_, err := tbl.Reorder([]string{"h1"}, map[string]HostDefaults{
		"h1": {Alias: "h1", AllowedTransfers: 1},
	})
	require.NoError(t, err)

	slot, err := tbl.ClaimSlot("h1", 4242, 99)
	require.NoError(t, err)

	h1, err := tbl.Host("h1")
	require.NoError(t, err)
	require.EqualValues(t, 1, h1.ActiveTransfers)
	require.Equal(t, int32(Connecting), h1.JobStatus[slot].ConnectStatus)

	_, err = tbl.ClaimSlot("h1", 1, 1)
	require.Error(t, err, "allowed_transfers exhausted must refuse a second claim")

	require.NoError(t, tbl.ReleaseSlot("h1", slot))
	h1, err = tbl.Host("h1")
	require.NoError(t, err)
	require.EqualValues(t, 0, h1.ActiveTransfers)
	require.Equal(t, int32(Disconnect), h1.JobStatus[slot].ConnectStatus)
}

func TestRecordFailureShiftsHistory(t *testing.T) {
	tbl := newTestTable(t)
	_, err := tbl.Reorder([]string{"h1"}, map[string]HostDefaults{"h1": {Alias: "h1", AllowedTransfers: 1, MaxErrors: 2}})
	require.NoError(t, err)

	require.NoError(t, tbl.RecordFailure("h1", 7))
	require.NoError(t, tbl.RecordFailure("h1", 9))

	h1, err := tbl.Host("h1")
	require.NoError(t, err)
	require.EqualValues(t, 2, h1.ErrorCounter)
	require.EqualValues(t, 9, h1.ErrorHistory[0])
	require.EqualValues(t, 7, h1.ErrorHistory[1])

	erroneous, err := tbl.IsErroneous("h1")
	require.NoError(t, err)
	require.True(t, erroneous)
}

func TestAdjustCountersClearsErrorsAtZero(t *testing.T) {
	tbl := newTestTable(t)
	_, err := tbl.Reorder([]string{"h1"}, map[string]HostDefaults{"h1": {Alias: "h1", AllowedTransfers: 1, MaxErrors: 1}})
	require.NoError(t, err)

	require.NoError(t, tbl.AdjustCounters("h1", 2, 2048))
	require.NoError(t, tbl.RecordFailure("h1", 3))

	require.NoError(t, tbl.AdjustCounters("h1", -2, -2048))

	h1, err := tbl.Host("h1")
	require.NoError(t, err)
	require.EqualValues(t, 0, h1.TotalFileCounter)
	require.EqualValues(t, 0, h1.ErrorCounter)
}

func TestCheckEntriesCorrectsDrift(t *testing.T) {
	tbl := newTestTable(t)
	_, err := tbl.Reorder([]string{"h1"}, map[string]HostDefaults{"h1": {Alias: "h1", AllowedTransfers: 2}})
	require.NoError(t, err)

	slot, err := tbl.ClaimSlot("h1", 1, 1)
	require.NoError(t, err)
	// Force a crash-like drift: active_transfers counted but the
	// queue is otherwise empty (total_file_counter/size both zero).
	_ = slot

	corrected, err := tbl.CheckEntries()
	require.NoError(t, err)
	require.Equal(t, 1, corrected)

	h1, err := tbl.Host("h1")
	require.NoError(t, err)
	require.EqualValues(t, 0, h1.ActiveTransfers)
	for _, js := range h1.JobStatus {
		require.Equal(t, int32(Disconnect), js.ConnectStatus)
	}
}

func TestCheckEntriesClearsErrorHistoryWhenQuiescent(t *testing.T) {
	tbl := newTestTable(t)
	_, err := tbl.Reorder([]string{"h1"}, map[string]HostDefaults{"h1": {Alias: "h1", AllowedTransfers: 1, MaxErrors: 5}})
	require.NoError(t, err)

	require.NoError(t, tbl.RecordFailure("h1", 3))
	require.NoError(t, tbl.RecordFailure("h1", 7))

	h1, err := tbl.Host("h1")
	require.NoError(t, err)
	require.EqualValues(t, 0, h1.TotalFileCounter)
	require.EqualValues(t, 0, h1.TotalFileSize)
	require.NotZero(t, h1.ErrorCounter)
	require.NotZero(t, h1.ErrorHistory[0])
	require.NotZero(t, h1.ErrorHistory[1])

	corrected, err := tbl.CheckEntries()
	require.NoError(t, err)
	require.Equal(t, 1, corrected)

	h1, err = tbl.Host("h1")
	require.NoError(t, err)
	require.EqualValues(t, 0, h1.ErrorCounter)
	require.EqualValues(t, 0, h1.ErrorHistory[0])
	require.EqualValues(t, 0, h1.ErrorHistory[1])
}

func TestFlagsRoundTrip(t *testing.T) {
	tbl := newTestTable(t)
	require.False(t, tbl.HasFlag(FlagDisableArchive))

	_, err := tbl.SetFlag(FlagDisableArchive)
	require.NoError(t, err)
	require.True(t, tbl.HasFlag(FlagDisableArchive))

	_, err = tbl.ClearFlag(FlagDisableArchive)
	require.NoError(t, err)
	require.False(t, tbl.HasFlag(FlagDisableArchive))
}
