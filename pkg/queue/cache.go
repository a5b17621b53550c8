// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"sync"

	"github.com/stratastor/afd/pkg/errors"
)

// MessageCache mirrors mdb[], MSG_CACHE_FILE's in-memory form
// (spec.md §4.6). Unlike JID/DNB it is not append-only: del_cache
// removes an element by position, closing the gap with a slice
// delete, the Go analogue of the original's memmove-and-decrement.
type MessageCache struct {
	mu      sync.Mutex
	entries []CacheEntry
}

// NewMessageCache returns an empty cache.
func NewMessageCache() *MessageCache {
	return &MessageCache{}
}

// Put inserts or replaces msg, returning its position.
func (c *MessageCache) Put(msg Message) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.entries {
		if e.Message.JobID == msg.JobID {
			c.entries[i].Message = msg
			return i
		}
	}
	pos := len(c.entries)
	c.entries = append(c.entries, CacheEntry{Pos: pos, Message: msg})
	return pos
}

// Get returns the entry at pos.
func (c *MessageCache) Get(pos int) (CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pos < 0 || pos >= len(c.entries) {
		return CacheEntry{}, errors.New(errors.QueueMessageNotFound, "position out of range")
	}
	return c.entries[pos], nil
}

// ByJobID returns the entry for a given job id.
func (c *MessageCache) ByJobID(jobID uint32) (CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.Message.JobID == jobID {
			return e, nil
		}
	}
	return CacheEntry{}, errors.New(errors.QueueMessageNotFound, "job_id not cached")
}

// Len returns the number of cached entries.
func (c *MessageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// DelCache removes the element at pos (the del_cache tool's
// contract, spec.md §6: "del_cache <pos> — removes a message-cache
// element when the queue is empty"). Positions of later elements
// shift down by one and are renumbered in place.
func (c *MessageCache) DelCache(pos int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pos < 0 || pos >= len(c.entries) {
		return errors.New(errors.QueueMessageNotFound, "position out of range")
	}
	c.entries = append(c.entries[:pos], c.entries[pos+1:]...)
	for i := pos; i < len(c.entries); i++ {
		c.entries[i].Pos = i
	}
	return nil
}

// Snapshot returns a copy of the current cache contents.
func (c *MessageCache) Snapshot() []CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CacheEntry, len(c.entries))
	copy(out, c.entries)
	return out
}
