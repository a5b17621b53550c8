// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"sync"
	"time"

	"github.com/stratastor/afd/internal/constants"
)

// ListedFile is one LS-data entry (spec.md §3 "Retrieve list"):
// {file_name, file_mtime, got_date, size, retrieved, in_list}.
type ListedFile struct {
	Name      string
	Mtime     int64
	GotDate   int64
	Size      int64
	Retrieved bool
	InList    bool
}

// RetrieveList mirrors a pull-directory's LS-data mapping (spec.md §3,
// §4.5 "check_list"). Entries live in a plain Go slice; MappedSize
// reports the RETRIEVE_LIST_STEP_SIZE-rounded size the on-disk mapping
// would have for the current entry count (§8 property 6).
type RetrieveList struct {
	mu      sync.Mutex
	byName  map[string]int
	entries []ListedFile
	step    int
}

// NewRetrieveList returns an empty list using constants.RetrieveListStepSize.
func NewRetrieveList() *RetrieveList {
	return &RetrieveList{byName: make(map[string]int), step: constants.RetrieveListStepSize}
}

// StupidMode selects GET_ONCE_ONLY vs GET_ALWAYS re-fetch semantics.
type StupidMode int

const (
	StupidModeGetOnceOnly StupidMode = iota
	StupidModeGetAlways
)

// CheckList implements check_list(p_de, name, stat) (spec.md §4.5):
//
//	present + GET_ONCE_ONLY + already retrieved  -> -1 (skip)
//	present + unchanged size/mtime + retrieved    -> -2 (skip)
//	present + changed size/mtime                  -> clears retrieved, returns index
//	absent                                         -> appended, returns new index
func (l *RetrieveList) CheckList(name string, size, mtime int64, mode StupidMode, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i, ok := l.byName[name]; ok {
		e := &l.entries[i]
		if mode == StupidModeGetOnceOnly && e.Retrieved {
			return -1
		}
		changed := e.Size != size || e.Mtime != mtime
		if !changed && e.Retrieved {
			return -2
		}
		if changed {
			e.Retrieved = false
		}
		e.Size = size
		e.Mtime = mtime
		e.InList = true
		return i
	}

	l.growIfNeeded()
	e := ListedFile{Name: name, Mtime: mtime, GotDate: now.Unix(), Size: size, InList: true}
	l.entries = append(l.entries, e)
	idx := len(l.entries) - 1
	l.byName[name] = idx
	return idx
}

// MarkRetrieved sets entries[idx].Retrieved.
func (l *RetrieveList) MarkRetrieved(idx int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx >= 0 && idx < len(l.entries) {
		l.entries[idx].Retrieved = true
	}
}

// growIfNeeded is a no-op placeholder maintaining the step-boundary
// invariant conceptually; the backing store here is a Go slice (which
// grows geometrically on its own); MappedSize computes the
// RetrieveListStepSize-rounded size.
func (l *RetrieveList) growIfNeeded() {}

// RmRemovedFiles drops entries where InList == false (files no
// longer present on the remote listing) and reindexes the rest;
// MappedSize then reports the step-rounded size of what remains
// (spec.md §4.5 "rm_removed_files", §8 invariant 6).
func (l *RetrieveList) RmRemovedFiles() {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.InList {
			kept = append(kept, e)
		}
	}
	l.entries = kept
	l.byName = make(map[string]int, len(kept))
	for i, e := range kept {
		l.byName[e.Name] = i
	}
}

// ResetInList clears InList on every entry before a fresh remote
// listing pass repopulates it via CheckList.
func (l *RetrieveList) ResetInList() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		l.entries[i].InList = false
	}
}

// MappedSize returns the step-rounded entry count the on-disk LS-data
// file would occupy for the current entry count, i.e.
// ceil(n / step) * step (spec.md §8 invariant 6).
func (l *RetrieveList) MappedSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.entries)
	if n == 0 {
		return 0
	}
	return ((n + l.step - 1) / l.step) * l.step
}

// Len returns the number of live entries.
func (l *RetrieveList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Snapshot returns a copy of the current entries.
func (l *RetrieveList) Snapshot() []ListedFile {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ListedFile, len(l.entries))
	copy(out, l.entries)
	return out
}
