// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stratastor/afd/internal/events"
)

func TestStageFileHardLinksSameFilesystem(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0644))
	pool := filepath.Join(dir, "pool")

	res, err := StageFile(src, pool, FlagInSameFilesystem)
	require.NoError(t, err)
	require.Equal(t, "link", res.Method)

	data, err := os.ReadFile(filepath.Join(pool, "a.bin"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestStageFileCopyPreservesMtime(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(src, []byte("12345678"), 0644))
	mtime := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	pool := filepath.Join(dir, "pool")
	res, err := StageFile(src, pool, FlagDoNotLinkFiles)
	require.NoError(t, err)
	require.Equal(t, "copy", res.Method)
	require.EqualValues(t, 8, res.Size)

	info, err := os.Stat(res.Destination)
	require.NoError(t, err)
	require.WithinDuration(t, mtime, info.ModTime(), time.Second)
}

func TestAgeLimitExcludesOldFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))
	old := time.Now().Add(-120 * time.Second)
	require.NoError(t, os.Chtimes(src, old, old))

	pool := filepath.Join(dir, "pool")
	fanout := events.NewFanout(nil)
	r, w := os.Pipe()
	fanout.Register(events.KindDelete, w)

	out, err := Scan(context.Background(), ScanConfig{
		SourceDir: dir,
		PoolDir:   pool,
		AgeLimit:  60,
		DirID:     1,
	}, fanout, NewDistributionPool(), DiskFullHooks{})
	require.NoError(t, err)
	w.Close()

	require.Contains(t, out.AgedOut, "f.txt")
	_, statErr := os.Stat(filepath.Join(pool, "f.txt"))
	require.True(t, os.IsNotExist(statErr), "aged-out file must never be staged")

	buf := make([]byte, 4096)
	n, _ := r.Read(buf)
	require.NotZero(t, n)
}

func TestRetrieveListIdempotence(t *testing.T) {
	l := NewRetrieveList()
	now := time.Now()

	idx := l.CheckList("remote.dat", 100, 1000, StupidModeGetAlways, now)
	require.GreaterOrEqual(t, idx, 0)
	l.MarkRetrieved(idx)

	again := l.CheckList("remote.dat", 100, 1000, StupidModeGetAlways, now)
	require.Equal(t, -2, again, "unchanged stat must short-circuit as already-retrieved")

	changed := l.CheckList("remote.dat", 200, 1000, StupidModeGetAlways, now)
	require.Equal(t, idx, changed, "changed size returns the same index, not a new one")

	onceOnly := NewRetrieveList()
	i2 := onceOnly.CheckList("once.dat", 10, 5, StupidModeGetOnceOnly, now)
	onceOnly.MarkRetrieved(i2)
	require.Equal(t, -1, onceOnly.CheckList("once.dat", 10, 5, StupidModeGetOnceOnly, now))
}

func TestRmRemovedFilesDropsEntriesNotInList(t *testing.T) {
	l := NewRetrieveList()
	now := time.Now()
	for i := 0; i < 5; i++ {
		l.CheckList(string(rune('a'+i)), int64(i), int64(i), StupidModeGetAlways, now)
	}
	l.ResetInList()
	l.CheckList("a", 0, 0, StupidModeGetAlways, now)
	l.CheckList("b", 1, 1, StupidModeGetAlways, now)

	l.RmRemovedFiles()
	require.Equal(t, 2, l.Len())
}

func TestStageWithRetrySucceedsImmediatelyWhenNoDiskFull(t *testing.T) {
	attempts := 0
	fullLogged := false

	err := StageWithRetry(context.Background(), DiskFullHooks{
		OnDiskFull: func() { fullLogged = true },
	}, func() error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, attempts)
	require.False(t, fullLogged)
}

func TestStageWithRetryPropagatesNonDiskFullErrors(t *testing.T) {
	sentinel := os.ErrPermission
	err := StageWithRetry(context.Background(), DiskFullHooks{}, func() error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel, "only ENOSPC should trigger the retry loop; other errors propagate immediately")
}

func TestStageWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := StageWithRetry(ctx, DiskFullHooks{}, func() error {
		return syscall.ENOSPC
	})
	require.ErrorIs(t, err, context.Canceled)
}
