// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package fra

import (
	"sync"
	"time"

	"github.com/stratastor/afd/internal/constants"
	"github.com/stratastor/afd/pkg/errors"
	"github.com/stratastor/afd/pkg/sharedarea"
)

// Table is the live FRA.
type Table struct {
	mu      sync.Mutex
	area    *sharedarea.Area[DirEntry]
	byAlias map[string]int
}

// NewTable binds a Table to fifoDir's FRA_STAT_FILE/FRA_ID_FILE pair.
func NewTable(fifoDir string) *Table {
	return &Table{
		area:    sharedarea.New[DirEntry](fifoDir, constants.FraStatFileBase, constants.FraIDFile, version),
		byAlias: make(map[string]int),
	}
}

func aliasString(b [constants.MaxDirAlias]byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

func setFixed(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, s)
}

// Load attaches the current generation and rebuilds the alias index.
func (t *Table) Load() error {
	if err := t.area.Attach(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rebuildIndex()
	return nil
}

func (t *Table) rebuildIndex() {
	entries := t.area.Entries()
	t.byAlias = make(map[string]int, len(entries))
	for i, e := range entries {
		t.byAlias[aliasString(e.Alias)] = i
	}
}

// Dir returns the current entry for alias.
func (t *Table) Dir(alias string) (DirEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.byAlias[alias]
	if !ok {
		return DirEntry{}, errors.New(errors.FRADirNotFound, alias)
	}
	return t.area.Entries()[i], nil
}

// NewDirSpec describes a directory being added by a DIR_CONFIG rebuild
// (spec.md §2, "AMG owns FRA/JID/DNB rebuilds when DIR_CONFIG changes").
type NewDirSpec struct {
	Alias    string
	URL      string
	DirID    uint32
	FSAPos   int32
	Priority byte
	DirFlag  uint32
}

// Rebuild performs the C1 swap backing a DIR_CONFIG reread: newOrder
// lists every directory alias in its new position; directories present
// in the old table carry their live counters forward (files_in_dir,
// files_queued, last_retrieval, ...), directories absent from the old
// table are created fresh from specs.
func (t *Table) Rebuild(newOrder []string, specs map[string]NewDirSpec) (uint32, error) {
	t.mu.Lock()
	old := t.area.Entries()
	byAlias := make(map[string]DirEntry, len(old))
	for _, e := range old {
		byAlias[aliasString(e.Alias)] = e
	}
	t.mu.Unlock()

	next := make([]DirEntry, len(newOrder))
	for i, alias := range newOrder {
		if e, ok := byAlias[alias]; ok {
			next[i] = e
			continue
		}
		s := specs[alias]
		var e DirEntry
		setFixed(e.Alias[:], s.Alias)
		setFixed(e.URL[:], s.URL)
		e.DirID = s.DirID
		e.FSAPos = s.FSAPos
		e.Priority = s.Priority
		e.DirFlag = s.DirFlag
		e.Status = int32(StatusNormal)
		next[i] = e
	}

	gen, err := t.area.Swap(next)
	if err != nil {
		return 0, err
	}
	t.mu.Lock()
	t.rebuildIndex()
	t.mu.Unlock()
	return gen, nil
}

// SetQueueCounters updates files_queued/bytes_in_queue for alias and
// maintains the FILES_IN_QUEUE flag invariant (spec.md §3: "FILES_IN_QUEUE
// flag set iff files_queued > 0"; §8 invariant 4: "files_queued ≤
// files_in_dir after scanner completion").
func (t *Table) SetQueueCounters(alias string, filesQueued int32, bytesInQueue int64) error {
	t.mu.Lock()
	i, ok := t.byAlias[alias]
	if !ok {
		t.mu.Unlock()
		return errors.New(errors.FRADirNotFound, alias)
	}
	entries := append([]DirEntry(nil), t.area.Entries()...)
	e := &entries[i]
	if filesQueued > e.FilesInDir {
		filesQueued = e.FilesInDir
	}
	e.FilesQueued = filesQueued
	e.BytesInQueue = bytesInQueue
	if filesQueued > 0 {
		e.DirFlag |= uint32(FlagFilesInQueue)
	} else {
		e.DirFlag &^= uint32(FlagFilesInQueue)
	}
	t.mu.Unlock()

	if _, err := t.area.Swap(entries); err != nil {
		return err
	}
	t.mu.Lock()
	t.rebuildIndex()
	t.mu.Unlock()
	return nil
}

// RecordScan updates the live counters a completed directory scan
// produces: files/bytes seen in the directory and received this pass.
func (t *Table) RecordScan(alias string, filesInDir int32, bytesInDir int64, filesReceivedDelta int64, bytesReceivedDelta int64) error {
	t.mu.Lock()
	i, ok := t.byAlias[alias]
	if !ok {
		t.mu.Unlock()
		return errors.New(errors.FRADirNotFound, alias)
	}
	entries := append([]DirEntry(nil), t.area.Entries()...)
	e := &entries[i]
	e.FilesInDir = filesInDir
	e.BytesInDir = bytesInDir
	e.FilesReceived += filesReceivedDelta
	e.BytesReceived += bytesReceivedDelta
	e.LastRetrieval = time.Now().Unix()
	if e.FilesQueued > e.FilesInDir {
		e.FilesQueued = e.FilesInDir
	}
	t.mu.Unlock()

	if _, err := t.area.Swap(entries); err != nil {
		return err
	}
	t.mu.Lock()
	t.rebuildIndex()
	t.mu.Unlock()
	return nil
}

// WarnTimeCheck compares now against a directory's warn_time and flips
// WARN_TIME_REACHED, reporting whether the transition just happened
// (spec.md §4.4: "A transition into WARN_TIME_REACHED is emitted to the
// receive_log" — the caller does the emitting; this only flips the
// bit and tells the caller whether to).
func (t *Table) WarnTimeCheck(alias string, now time.Time) (transitioned bool, err error) {
	t.mu.Lock()
	i, ok := t.byAlias[alias]
	if !ok {
		t.mu.Unlock()
		return false, errors.New(errors.FRADirNotFound, alias)
	}
	if t.area.Header().Flags&HeaderFlagDisableDirWarnTime != 0 {
		t.mu.Unlock()
		return false, nil
	}
	entries := append([]DirEntry(nil), t.area.Entries()...)
	e := &entries[i]
	alreadySet := e.DirFlag&uint32(FlagWarnTimeReached) != 0
	shouldBeSet := e.WarnTime > 0 && now.Unix() >= e.LastRetrieval+e.WarnTime
	t.mu.Unlock()

	if shouldBeSet == alreadySet {
		return false, nil
	}
	if shouldBeSet {
		entries[i].DirFlag |= uint32(FlagWarnTimeReached)
	} else {
		entries[i].DirFlag &^= uint32(FlagWarnTimeReached)
	}
	if _, err := t.area.Swap(entries); err != nil {
		return false, err
	}
	t.mu.Lock()
	t.rebuildIndex()
	t.mu.Unlock()
	return shouldBeSet, nil
}

// CalcNextTime returns the next instant at or after from matching te's
// minute/hour/day-of-month/month/day-of-week bitmask (spec.md §4.4
// "calc_next_time(te) returns the next instant matching the mask").
// A zero TimeEntry (no bits set in any field) matches every instant.
func CalcNextTime(te TimeEntry, from time.Time) time.Time {
	if te.Minute == 0 && te.Hour == 0 && te.DayOfMonth == 0 && te.Month == 0 && te.DayOfWeek == 0 {
		return from
	}
	// Search minute-by-minute up to two years out; bd_time_entry windows
	// are meant to be checked on a cron-like cadence, not simulated at
	// second granularity.
	t := from.Truncate(time.Minute)
	if t.Before(from) {
		t = t.Add(time.Minute)
	}
	limit := from.AddDate(2, 0, 0)
	for ; t.Before(limit); t = t.Add(time.Minute) {
		if matches(te, t) {
			return t
		}
	}
	return from
}

func matches(te TimeEntry, t time.Time) bool {
	if te.Minute != 0 && te.Minute&(1<<uint(t.Minute())) == 0 {
		return false
	}
	if te.Hour != 0 && te.Hour&(1<<uint(t.Hour())) == 0 {
		return false
	}
	if te.DayOfMonth != 0 && te.DayOfMonth&(1<<uint(t.Day())) == 0 {
		return false
	}
	if te.Month != 0 && te.Month&(1<<uint(t.Month())) == 0 {
		return false
	}
	if te.DayOfWeek != 0 && te.DayOfWeek&(1<<uint(t.Weekday())) == 0 {
		return false
	}
	return true
}

// CheckEntries is the FRA analogue of the FSA consistency sweep
// (spec.md §8 invariant 4): corrects files_queued > files_in_dir and
// bytes_in_queue > bytes_in_dir drift, returning the number of entries
// corrected.
func (t *Table) CheckEntries() (int, error) {
	t.mu.Lock()
	entries := append([]DirEntry(nil), t.area.Entries()...)
	t.mu.Unlock()

	corrected := 0
	for i := range entries {
		e := &entries[i]
		dirty := false
		if e.FilesQueued > e.FilesInDir {
			e.FilesQueued = e.FilesInDir
			dirty = true
		}
		if e.BytesInQueue > e.BytesInDir {
			e.BytesInQueue = e.BytesInDir
			dirty = true
		}
		if e.FilesQueued < 0 {
			e.FilesQueued = 0
			dirty = true
		}
		wantFlag := e.FilesQueued > 0
		hasFlag := e.DirFlag&uint32(FlagFilesInQueue) != 0
		if wantFlag != hasFlag {
			if wantFlag {
				e.DirFlag |= uint32(FlagFilesInQueue)
			} else {
				e.DirFlag &^= uint32(FlagFilesInQueue)
			}
			dirty = true
		}
		if dirty {
			corrected++
		}
	}
	if corrected == 0 {
		return 0, nil
	}
	if _, err := t.area.Swap(entries); err != nil {
		return 0, err
	}
	t.mu.Lock()
	t.rebuildIndex()
	t.mu.Unlock()
	return corrected, nil
}

// SetDisabled toggles DIR_DISABLED on a directory, the FRA half of
// afdcfg -d/-D.
func (t *Table) SetDisabled(alias string, disabled bool) error {
	t.mu.Lock()
	i, ok := t.byAlias[alias]
	if !ok {
		t.mu.Unlock()
		return errors.New(errors.FRADirNotFound, alias)
	}
	entries := append([]DirEntry(nil), t.area.Entries()...)
	e := &entries[i]
	if disabled {
		e.DirFlag |= uint32(FlagDirDisabled)
		e.Status = int32(StatusDisabled)
	} else {
		e.DirFlag &^= uint32(FlagDirDisabled)
		e.Status = int32(StatusNormal)
	}
	t.mu.Unlock()

	if _, err := t.area.Swap(entries); err != nil {
		return err
	}
	t.mu.Lock()
	t.rebuildIndex()
	t.mu.Unlock()
	return nil
}

// Snapshot returns a copy of every directory entry currently attached,
// for read-only fan-out consumers (statistics sampling, CLI listing)
// that shouldn't take t's mutex directly.
func (t *Table) Snapshot() []DirEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]DirEntry(nil), t.area.Entries()...)
}
