// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package fra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	tbl := NewTable(t.TempDir())
	require.NoError(t, tbl.Load())
	return tbl
}

func TestRebuildSeedsNewDirectories(t *testing.T) {
	tbl := newTestTable(t)
	_, err := tbl.Rebuild([]string{"d1"}, map[string]NewDirSpec{
		"d1": {Alias: "d1", URL: "/data/in", DirID: 1},
	})
	require.NoError(t, err)

	d1, err := tbl.Dir("d1")
	require.NoError(t, err)
	require.EqualValues(t, 1, d1.DirID)
	require.Equal(t, int32(StatusNormal), d1.Status)
}

func TestSetQueueCountersClampsToFilesInDir(t *testing.T) {
	tbl := newTestTable(t)
	_, err := tbl.Rebuild([]string{"d1"}, map[string]NewDirSpec{"d1": {Alias: "d1"}})
	require.NoError(t, err)

	require.NoError(t, tbl.RecordScan("d1", 3, 300, 0, 0))
	require.NoError(t, tbl.SetQueueCounters("d1", 10, 1000))

	d1, err := tbl.Dir("d1")
	require.NoError(t, err)
	require.EqualValues(t, 3, d1.FilesQueued, "files_queued must never exceed files_in_dir")
	require.NotZero(t, d1.DirFlag&uint32(FlagFilesInQueue))

	require.NoError(t, tbl.SetQueueCounters("d1", 0, 0))
	d1, err = tbl.Dir("d1")
	require.NoError(t, err)
	require.Zero(t, d1.DirFlag&uint32(FlagFilesInQueue))
}

func TestCheckEntriesCorrectsDrift(t *testing.T) {
	tbl := newTestTable(t)
	_, err := tbl.Rebuild([]string{"d1"}, map[string]NewDirSpec{"d1": {Alias: "d1"}})
	require.NoError(t, err)
	require.NoError(t, tbl.RecordScan("d1", 5, 500, 0, 0))

	// Force an impossible state directly via Rebuild's carry-forward path
	// is awkward; instead drive it through SetQueueCounters then shrink
	// the directory on a subsequent scan. RecordScan clamps files_queued
	// itself, but leaves bytes_in_queue > bytes_in_dir until the sweep
	// runs.
	require.NoError(t, tbl.SetQueueCounters("d1", 5, 500))
	require.NoError(t, tbl.RecordScan("d1", 2, 200, 0, 0))

	corrected, err := tbl.CheckEntries()
	require.NoError(t, err)
	require.Equal(t, 1, corrected)

	d1, err := tbl.Dir("d1")
	require.NoError(t, err)
	require.LessOrEqual(t, d1.FilesQueued, d1.FilesInDir)
}

func TestCalcNextTimeMatchesHourMask(t *testing.T) {
	te := TimeEntry{Hour: 1 << 9} // only hour 9
	from := time.Date(2026, 1, 1, 8, 30, 0, 0, time.UTC)

	next := CalcNextTime(te, from)
	require.Equal(t, 9, next.Hour())
	require.Equal(t, 0, next.Minute())
}

func TestCalcNextTimeZeroMaskMatchesImmediately(t *testing.T) {
	from := time.Date(2026, 1, 1, 8, 30, 0, 0, time.UTC)
	require.Equal(t, from, CalcNextTime(TimeEntry{}, from))
}

func TestWarnTimeZeroNeverTransitions(t *testing.T) {
	tbl := newTestTable(t)
	_, err := tbl.Rebuild([]string{"d1"}, map[string]NewDirSpec{"d1": {Alias: "d1"}})
	require.NoError(t, err)
	require.NoError(t, tbl.RecordScan("d1", 0, 0, 0, 0))

	d1, err := tbl.Dir("d1")
	require.NoError(t, err)
	past := time.Unix(d1.LastRetrieval, 0).Add(-time.Hour)

	// Rebuild doesn't set WarnTime, so d1 keeps a warn_time of 0; check
	// relative to RecordScan's LastRetrieval that no transition happens.
	transitioned, err := tbl.WarnTimeCheck("d1", past)
	require.NoError(t, err)
	require.False(t, transitioned, "warn_time of 0 never reaches WARN_TIME_REACHED")
}
