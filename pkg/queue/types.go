// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package queue implements C6: FD's in-memory output queue (qb[]),
// the message cache (mdb[]), per-job message text on disk, and the
// append-restart bookkeeping FTP resume needs (spec.md §3 "Message
// (queued job)", §4.6).
package queue

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/stratastor/afd/pkg/errors"
)

// RestartEntry is one `<filename>|<mtime>` line under the
// RESTART_FILE_ID option block (spec.md §3, §4.6).
type RestartEntry struct {
	Name  string
	Mtime int64
}

// Message mirrors the parsed text option blob under
// AFD_MSG_DIR/<job_id> (spec.md §3 "Message"): standard options plus
// the restart list.
type Message struct {
	JobID     uint32
	Host      string
	Options   []string
	Restarts  []RestartEntry
}

// CacheEntry is one mdb[] slot: a parsed, in-memory Message plus the
// position del_cache addresses (spec.md §4.6 "the message-cache mdb[]
// caches parsed messages ... the del_cache tool can remove an element
// by position").
type CacheEntry struct {
	Pos     int
	Message Message
}

// QueueKind distinguishes a pull (directory/retrieve) entry from a
// push (staged message) entry in qb[] (spec.md §4.6: "Each entry
// refers to either a directory (pull) or a staged message (push)").
type QueueKind int

const (
	KindPush QueueKind = iota
	KindPull
)

// QueueEntry is one qb[] slot.
type QueueEntry struct {
	Kind       QueueKind
	HostAlias  string
	JobID      uint32
	DirAlias   string
	Priority   byte
	EnqueuedAt time.Time
	// MsgPos indexes into the MessageCache for KindPush entries.
	MsgPos int
}

// FormatMsgName renders the queue spool name
// "<priority>/<dir_id>/<sub>/<creation_time>_<unique>_<split>"
// (spec.md §3 "Message").
func FormatMsgName(priority byte, dirID uint32, sub int, creationTime time.Time, unique uint32, split uint32) string {
	return fmt.Sprintf("%c/%d/%d/%d_%d_%d", priority, dirID, sub, creationTime.Unix(), unique, split)
}

// ParseMsgName is the inverse of FormatMsgName.
func ParseMsgName(name string) (priority byte, dirID uint32, sub int, creationTime time.Time, unique uint32, split uint32, err error) {
	parts := strings.Split(name, "/")
	if len(parts) != 4 {
		return 0, 0, 0, time.Time{}, 0, 0, errors.New(errors.QueueMessageCorrupt, name)
	}
	if len(parts[0]) != 1 {
		return 0, 0, 0, time.Time{}, 0, 0, errors.New(errors.QueueMessageCorrupt, name)
	}
	priority = parts[0][0]
	var d uint64
	if _, e := fmt.Sscanf(parts[1], "%d", &d); e != nil {
		return 0, 0, 0, time.Time{}, 0, 0, errors.Wrap(e, errors.QueueMessageCorrupt)
	}
	dirID = uint32(d)
	if _, e := fmt.Sscanf(parts[2], "%d", &sub); e != nil {
		return 0, 0, 0, time.Time{}, 0, 0, errors.Wrap(e, errors.QueueMessageCorrupt)
	}
	tail := strings.SplitN(parts[3], "_", 3)
	if len(tail) != 3 {
		return 0, 0, 0, time.Time{}, 0, 0, errors.New(errors.QueueMessageCorrupt, name)
	}
	var ctime, un, sp uint64
	if _, e := fmt.Sscanf(tail[0], "%d", &ctime); e != nil {
		return 0, 0, 0, time.Time{}, 0, 0, errors.Wrap(e, errors.QueueMessageCorrupt)
	}
	if _, e := fmt.Sscanf(tail[1], "%d", &un); e != nil {
		return 0, 0, 0, time.Time{}, 0, 0, errors.Wrap(e, errors.QueueMessageCorrupt)
	}
	if _, e := fmt.Sscanf(tail[2], "%d", &sp); e != nil {
		return 0, 0, 0, time.Time{}, 0, 0, errors.Wrap(e, errors.QueueMessageCorrupt)
	}
	return priority, dirID, sub, time.Unix(int64(ctime), 0).UTC(), uint32(un), uint32(sp), nil
}

// sortQueueEntries orders qb by priority (ASCII, lower byte = higher
// priority as AFD treats '0' as highest) then enqueue time, the
// ordering guarantee spec.md §5 requires: "Within a host, messages are
// served in enqueue order modulo slot availability; no reordering
// across priority groups."
func sortQueueEntries(entries []QueueEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority < entries[j].Priority
		}
		return entries[i].EnqueuedAt.Before(entries[j].EnqueuedAt)
	})
}
