// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package statistics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDirDBSeedsNewDirWithoutDelta(t *testing.T) {
	db := NewDirDB()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	db.Sync(now, []DirSnapshot{{Alias: "indir", FilesReceived: 50, BytesReceived: 2000}})

	rec, err := db.Record("indir")
	require.NoError(t, err)
	require.Equal(t, "indir", rec.Alias())
	require.Equal(t, Counters{}, Totals(rec.Year[:], rec.Day[:], rec.Hour[:]))
}

func TestDirDBAccumulatesDelta(t *testing.T) {
	db := NewDirDB()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	db.Sync(t0, []DirSnapshot{{Alias: "indir", FilesReceived: 50, BytesReceived: 2000}})

	t1 := t0.Add(StatRescanTime)
	db.Sync(t1, []DirSnapshot{{Alias: "indir", FilesReceived: 70, BytesReceived: 2800}})

	rec, err := db.Record("indir")
	require.NoError(t, err)
	totals := Totals(rec.Year[:], rec.Day[:], rec.Hour[:])
	require.Equal(t, uint64(20), totals.Files)
	require.Equal(t, uint64(800), totals.Bytes)
}

func TestDirDBUnknownAliasErrors(t *testing.T) {
	db := NewDirDB()
	_, err := db.Record("missing")
	require.Error(t, err)
}

func TestDirDBRollsDayIntoYearAcrossBoundary(t *testing.T) {
	db := NewDirDB()
	t0 := time.Date(2026, 3, 1, 23, 59, 58, 0, time.UTC)
	db.Sync(t0, []DirSnapshot{{Alias: "indir", FilesReceived: 5}})

	t1 := time.Date(2026, 3, 2, 0, 0, 3, 0, time.UTC)
	db.Sync(t1, []DirSnapshot{{Alias: "indir", FilesReceived: 15}})

	rec, err := db.Record("indir")
	require.NoError(t, err)
	require.Equal(t, t1.YearDay()-1, int(rec.DayCounter))
	require.Equal(t, uint64(10), rec.Hour[rec.SecCounter].Files)
}
