// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package statistics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHostDBSeedsNewHostWithoutDelta(t *testing.T) {
	db := NewHostDB()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	db.Sync(now, []HostSnapshot{{Alias: "srv01", Files: 100, Bytes: 5000, Errors: 2}})

	rec, err := db.Record("srv01")
	require.NoError(t, err)
	require.Equal(t, "srv01", rec.Alias())
	require.Equal(t, Counters{}, Totals(rec.Year[:], rec.Day[:], rec.Hour[:]))
}

func TestHostDBAccumulatesDeltaOnSubsequentSync(t *testing.T) {
	db := NewHostDB()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	db.Sync(t0, []HostSnapshot{{Alias: "srv01", Files: 100, Bytes: 5000, Errors: 2}})

	t1 := t0.Add(StatRescanTime)
	db.Sync(t1, []HostSnapshot{{Alias: "srv01", Files: 140, Bytes: 9000, Errors: 3}})

	rec, err := db.Record("srv01")
	require.NoError(t, err)
	totals := Totals(rec.Year[:], rec.Day[:], rec.Hour[:])
	require.Equal(t, uint64(40), totals.Files)
	require.Equal(t, uint64(4000), totals.Bytes)
	require.Equal(t, uint64(1), totals.Errors)
}

func TestHostDBTreatsCounterResetAsNewBaseline(t *testing.T) {
	db := NewHostDB()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	db.Sync(t0, []HostSnapshot{{Alias: "srv01", Files: 500, Bytes: 9000}})

	t1 := t0.Add(StatRescanTime)
	db.Sync(t1, []HostSnapshot{{Alias: "srv01", Files: 10, Bytes: 200}})

	rec, err := db.Record("srv01")
	require.NoError(t, err)
	totals := Totals(rec.Year[:], rec.Day[:], rec.Hour[:])
	require.Equal(t, uint64(10), totals.Files)
	require.Equal(t, uint64(200), totals.Bytes)
}

func TestHostDBRollsHourIntoDayAcrossBoundary(t *testing.T) {
	db := NewHostDB()
	t0 := time.Date(2026, 3, 1, 10, 59, 58, 0, time.UTC)
	db.Sync(t0, []HostSnapshot{{Alias: "srv01", Files: 10}})

	t1 := time.Date(2026, 3, 1, 11, 0, 3, 0, time.UTC)
	db.Sync(t1, []HostSnapshot{{Alias: "srv01", Files: 30}})

	rec, err := db.Record("srv01")
	require.NoError(t, err)
	require.Equal(t, int32(11), rec.HourCounter)
	require.Equal(t, uint64(20), rec.Hour[rec.SecCounter].Files)
}

func TestHostDBRecordUnknownAliasErrors(t *testing.T) {
	db := NewHostDB()
	_, err := db.Record("missing")
	require.Error(t, err)
}

func TestHostDBSnapshotReturnsCopies(t *testing.T) {
	db := NewHostDB()
	now := time.Now()
	db.Sync(now, []HostSnapshot{{Alias: "a"}, {Alias: "b"}})

	snap := db.Snapshot()
	require.Len(t, snap, 2)
}
