// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package failure

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stratastor/afd/internal/events"
)

func TestStuckFileSweepRemovesOldFilesWhenFlagSet(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "stuck.dat")
	require.NoError(t, os.WriteFile(old, []byte("data"), 0644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	fresh := filepath.Join(dir, "fresh.dat")
	require.NoError(t, os.WriteFile(fresh, []byte("data"), 0644))

	log := testLogger(t)
	fanout := events.NewFanout(nil)
	r, w := os.Pipe()
	fanout.Register(events.KindDelete, w)

	results := StuckFileSweep(log, fanout, []WatchedDir{
		{Path: dir, DirID: 1, OldFileTime: time.Minute, RemoveFlag: true},
	})
	w.Close()

	require.Equal(t, 1, results[dir].FileCounter)
	_, err := os.Stat(old)
	require.True(t, os.IsNotExist(err), "stale file must be removed")
	_, err = os.Stat(fresh)
	require.NoError(t, err, "fresh file must survive")

	buf := make([]byte, 4096)
	n, _ := r.Read(buf)
	require.NotZero(t, n)
}

func TestStuckFileSweepOnlyCountsWhenFlagClear(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "stuck.dat")
	require.NoError(t, os.WriteFile(old, []byte("data"), 0644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	log := testLogger(t)
	results := StuckFileSweep(log, nil, []WatchedDir{
		{Path: dir, DirID: 1, OldFileTime: time.Minute, RemoveFlag: false},
	})

	require.Equal(t, 1, results[dir].FileCounter)
	require.True(t, results[dir].JunkFiles)
	_, err := os.Stat(old)
	require.NoError(t, err, "file must survive when remove_flag is unset")
}

func TestStuckFileSweepAlwaysRemovesDotfilesAndEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	dotfile := filepath.Join(dir, ".hidden")
	require.NoError(t, os.WriteFile(dotfile, []byte("x"), 0644))
	empty := filepath.Join(dir, "empty.dat")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(dotfile, past, past))
	require.NoError(t, os.Chtimes(empty, past, past))

	log := testLogger(t)
	results := StuckFileSweep(log, nil, []WatchedDir{
		{Path: dir, DirID: 1, OldFileTime: time.Minute, RemoveFlag: false},
	})

	require.Equal(t, 2, results[dir].FileCounter)
	_, err := os.Stat(dotfile)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(empty)
	require.True(t, os.IsNotExist(err))
}

func TestRemoveTimeDirRefusesNonEmpty(t *testing.T) {
	base := t.TempDir()
	ts := int64(1700000000)
	dir := filepath.Join(base, formatTimestamp(ts))
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pending"), []byte("x"), 0644))

	err := RemoveTimeDir(base, ts)
	require.Error(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "pending")))
	require.NoError(t, RemoveTimeDir(base, ts))
	_, err = os.Stat(dir)
	require.True(t, os.IsNotExist(err))
}

func TestRemoveTimeDirMissingIsNotAnError(t *testing.T) {
	require.NoError(t, RemoveTimeDir(t.TempDir(), 123))
}
