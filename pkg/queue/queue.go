// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"sync"
	"time"

	"github.com/stratastor/afd/pkg/errors"
)

// Queue is FD's in-memory qb[], the ready-to-send work list scheduled
// per host (spec.md §4.6).
type Queue struct {
	mu      sync.Mutex
	entries []QueueEntry
	// lastAttempt/retryInterval drive the "next attempt scheduled no
	// earlier than last_retry_time + retry_interval" rule (spec.md §4.6).
	lastAttempt   map[string]time.Time
	retryInterval map[string]time.Duration
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{
		lastAttempt:   make(map[string]time.Time),
		retryInterval: make(map[string]time.Duration),
	}
}

// Enqueue adds e to the queue, maintaining priority/enqueue-time
// ordering.
func (q *Queue) Enqueue(e QueueEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e.EnqueuedAt.IsZero() {
		e.EnqueuedAt = time.Now()
	}
	q.entries = append(q.entries, e)
	sortQueueEntries(q.entries)
}

// SetRetryInterval records a host's configured retry_interval, used by
// Next to withhold an entry until the interval has elapsed since the
// host's last attempt.
func (q *Queue) SetRetryInterval(alias string, d time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retryInterval[alias] = d
}

// MarkAttempt records that alias was just attempted, starting its
// retry-interval clock.
func (q *Queue) MarkAttempt(alias string, at time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lastAttempt[alias] = at
}

// Next returns the highest-priority, oldest-enqueued entry for alias
// that is eligible to run now (its retry interval, if any, has
// elapsed), without removing it from the queue.
func (q *Queue) Next(alias string, now time.Time) (QueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	last, hasLast := q.lastAttempt[alias]
	interval := q.retryInterval[alias]
	if hasLast && now.Before(last.Add(interval)) {
		return QueueEntry{}, false
	}

	for _, e := range q.entries {
		if e.HostAlias == alias {
			return e, true
		}
	}
	return QueueEntry{}, false
}

// Remove deletes the first entry matching alias+jobID (a transfer that
// completed or was explicitly dequeued).
func (q *Queue) Remove(alias string, jobID uint32) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.HostAlias == alias && e.JobID == jobID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return nil
		}
	}
	return errors.New(errors.QueueMessageNotFound, "no matching queue entry")
}

// RequeueHead moves a crashed worker's in-flight message back to the
// head of its host's queue (spec.md §4.9 "Zombie check in FD ...
// a crashed worker's slot is reset ... and its in-flight message is
// moved back to the queue head").
func (q *Queue) RequeueHead(e QueueEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	filtered := make([]QueueEntry, 0, len(q.entries)+1)
	filtered = append(filtered, e)
	for _, existing := range q.entries {
		if existing.HostAlias == e.HostAlias && existing.JobID == e.JobID {
			continue
		}
		filtered = append(filtered, existing)
	}
	q.entries = filtered
	sortQueueEntries(q.entries)
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// LenForHost returns the number of entries queued for alias. The FSA/FRA
// consistency sweeps do not call it; they judge emptiness from their own
// file counters.
func (q *Queue) LenForHost(alias string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, e := range q.entries {
		if e.HostAlias == alias {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the current queue contents, in schedule
// order.
func (q *Queue) Snapshot() []QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]QueueEntry, len(q.entries))
	copy(out, q.entries)
	return out
}
