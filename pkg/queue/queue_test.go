// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stratastor/afd/internal/events"
)

func TestMsgNameRoundTrip(t *testing.T) {
	ct := time.Unix(1700000000, 0).UTC()
	name := FormatMsgName('1', 42, 3, ct, 77, 0)

	prio, dirID, sub, gotCt, unique, split, err := ParseMsgName(name)
	require.NoError(t, err)
	require.Equal(t, byte('1'), prio)
	require.EqualValues(t, 42, dirID)
	require.Equal(t, 3, sub)
	require.Equal(t, ct, gotCt)
	require.EqualValues(t, 77, unique)
	require.EqualValues(t, 0, split)
}

func TestMessageCacheDelCacheRenumbers(t *testing.T) {
	c := NewMessageCache()
	c.Put(Message{JobID: 1})
	c.Put(Message{JobID: 2})
	c.Put(Message{JobID: 3})

	require.NoError(t, c.DelCache(1))
	require.Equal(t, 2, c.Len())

	e, err := c.Get(1)
	require.NoError(t, err)
	require.EqualValues(t, 3, e.Message.JobID)
	require.Equal(t, 1, e.Pos)
}

func TestQueueOrdersByPriorityThenEnqueueTime(t *testing.T) {
	q := NewQueue()
	now := time.Now()
	q.Enqueue(QueueEntry{HostAlias: "h1", JobID: 2, Priority: '5', EnqueuedAt: now})
	q.Enqueue(QueueEntry{HostAlias: "h1", JobID: 1, Priority: '1', EnqueuedAt: now.Add(time.Second)})

	e, ok := q.Next("h1", now.Add(2*time.Second))
	require.True(t, ok)
	require.EqualValues(t, 1, e.JobID, "higher priority (lower byte) must be scheduled first")
}

func TestQueueRetryIntervalWithholdsNextAttempt(t *testing.T) {
	q := NewQueue()
	now := time.Now()
	q.Enqueue(QueueEntry{HostAlias: "h1", JobID: 1, EnqueuedAt: now})
	q.SetRetryInterval("h1", 10*time.Second)
	q.MarkAttempt("h1", now)

	_, ok := q.Next("h1", now.Add(2*time.Second))
	require.False(t, ok, "retry interval has not elapsed")

	_, ok = q.Next("h1", now.Add(11*time.Second))
	require.True(t, ok)
}

func TestLogAppendAndRemoveAppendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewMsgStore(dir)
	require.NoError(t, store.Write(Message{JobID: 1, Host: "h1", Options: []string{"proto=ftp"}}))

	require.NoError(t, store.LogAppend(1, "big.dat", 1000))
	ok, err := store.AppendCompare(1, "big.dat", 1000)
	require.NoError(t, err)
	require.True(t, ok)

	// S6: touching the source changes mtime, invalidating the entry.
	ok, err = store.AppendCompare(1, "big.dat", 2000)
	require.NoError(t, err)
	require.False(t, ok)

	msg, err := store.Read(1)
	require.NoError(t, err)
	require.Empty(t, msg.Restarts, "mismatched mtime must invalidate (remove) the restart entry")

	require.NoError(t, store.LogAppend(1, "big.dat", 2000))
	require.NoError(t, store.RemoveAppend(1, "big.dat"))
	msg, err = store.Read(1)
	require.NoError(t, err)
	require.Empty(t, msg.Restarts)
	require.Contains(t, msg.Options, "proto=ftp")
}

type fakeFSA struct {
	deltaFiles int64
	deltaBytes int64
}

func (f *fakeFSA) AdjustCounters(alias string, deltaFiles int64, deltaBytes int64) error {
	f.deltaFiles += deltaFiles
	f.deltaBytes += deltaBytes
	return nil
}

func TestRemoveJobFilesDecrementsFSACounters(t *testing.T) {
	dir := t.TempDir()
	jobDir := filepath.Join(dir, "job1")
	require.NoError(t, os.MkdirAll(jobDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(jobDir, "a.txt"), []byte("hello"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(jobDir, "b.txt"), []byte("worldworld"), 0644))

	fanout := events.NewFanout(nil)
	var captured []byte
	r, w := os.Pipe()
	fanout.Register(events.KindDelete, w)
	fsa := &fakeFSA{}

	require.NoError(t, RemoveJobFiles(fanout, fsa, "h1", jobDir, 9, 100, events.ReasonOtherDel))
	w.Close()
	_, statErr := os.Stat(jobDir)
	require.True(t, os.IsNotExist(statErr))
	require.EqualValues(t, -2, fsa.deltaFiles)
	require.EqualValues(t, -15, fsa.deltaBytes)

	buf := make([]byte, 4096)
	n, _ := r.Read(buf)
	captured = buf[:n]
	require.NotEmpty(t, captured)
}
