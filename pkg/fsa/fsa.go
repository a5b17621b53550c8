// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package fsa

import (
	"sync"

	"github.com/stratastor/afd/internal/constants"
	"github.com/stratastor/afd/pkg/errors"
	"github.com/stratastor/afd/pkg/sharedarea"
)

// Table is the live FSA: one HostEntry per configured host, riding
// sharedarea.Area for attach/swap, plus the in-memory index by alias
// that every slot-claim and error-bookkeeping operation needs (spec.md
// §4.3).
type Table struct {
	mu      sync.Mutex
	area    *sharedarea.Area[HostEntry]
	byAlias map[string]int
}

// NewTable binds a Table to fifoDir's FSA_STAT_FILE/FSA_ID_FILE pair.
func NewTable(fifoDir string) *Table {
	return &Table{
		area:    sharedarea.New[HostEntry](fifoDir, constants.FsaStatFileBase, constants.FsaIDFile, version),
		byAlias: make(map[string]int),
	}
}

// Load attaches the current generation and rebuilds the alias index.
// Callers should re-Load after observing sharedarea.SharedAreaStale
// from any operation, mirroring the reader-side reattach spec.md §4.1
// describes.
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
		t.byAlias[aliasString(e.HostAlias)] = i
	}
}

func aliasString(b [constants.MaxHostnameLength]byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

func setAlias(dst *[constants.MaxHostnameLength]byte, s string) {
	*dst = [constants.MaxHostnameLength]byte{}
	n := copy(dst[:], s)
	_ = n
}

// Host returns the current entry for alias.
func (t *Table) Host(alias string) (HostEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.byAlias[alias]
	if !ok {
		return HostEntry{}, errors.New(errors.FSAHostNotFound, alias)
	}
	return t.area.Entries()[i], nil
}

// HostDefaults seeds a new HostEntry from the host-list dictionary
// values a DIR_CONFIG recipient line carries (spec.md §4.3, "Order
// change (alias reorder)": "any new host not found in the old table is
// initialized from the host-list dictionary").
type HostDefaults struct {
	Alias            string
	HostnameReal1    string
	HostnameReal2    string
	AllowedTransfers int32
	MaxErrors        int32
	RetryInterval    int32
	BlockSize        int32
	TransferTimeout  int32
	SpecialFlag      uint8
	Protocol         uint32
}

// Reorder performs the C1 swap that backs an alias reorder or a
// DIR_CONFIG host-list change (spec.md §4.3 "Order change", S2 in
// spec.md §8): newOrder lists every host alias in its new position;
// hosts present in the old table carry their live counters forward,
// hosts absent from the old table are initialized from defaults.
func (t *Table) Reorder(newOrder []string, defaults map[string]HostDefaults) (uint32, error) {
	t.mu.Lock()
	old := t.area.Entries()
	oldByAlias := make(map[string]HostEntry, len(old))
	for _, e := range old {
		oldByAlias[aliasString(e.HostAlias)] = e
	}
	t.mu.Unlock()

	next := make([]HostEntry, len(newOrder))
	for i, alias := range newOrder {
		if e, ok := oldByAlias[alias]; ok {
			next[i] = e
			continue
		}
		d := defaults[alias]
		var e HostEntry
		setAlias(&e.HostAlias, d.Alias)
		setAlias(&e.HostnameReal1, d.HostnameReal1)
		setAlias(&e.HostnameReal2, d.HostnameReal2)
		e.AllowedTransfers = d.AllowedTransfers
		e.MaxErrors = d.MaxErrors
		e.RetryInterval = d.RetryInterval
		e.BlockSize = d.BlockSize
		e.TransferTimeout = d.TransferTimeout
		e.SpecialFlag = d.SpecialFlag
		e.Protocol = d.Protocol
		for j := range e.JobStatus {
			e.JobStatus[j].ConnectStatus = int32(Disconnect)
			e.JobStatus[j].ProcID = NoID
			e.JobStatus[j].JobID = uint32(NoID)
		}
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

// ClaimSlot finds the first DISCONNECT slot for alias with
// active_transfers < allowed_transfers, marks it CONNECTING with the
// given worker pid and job id, and increments active_transfers
// (spec.md §4.6, "Scheduling per host"). It returns the claimed slot
// index, or FSASlotUnavailable if no slot is free.
func (t *Table) ClaimSlot(alias string, procID int32, jobID uint32) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.byAlias[alias]
	if !ok {
		return 0, errors.New(errors.FSAHostNotFound, alias)
	}

	entries := append([]HostEntry(nil), t.area.Entries()...)
	e := &entries[i]
	if e.ActiveTransfers >= e.AllowedTransfers {
		return 0, errors.New(errors.FSASlotUnavailable, alias)
	}
	for j := range e.JobStatus {
		if ConnectStatus(e.JobStatus[j].ConnectStatus) == Disconnect {
			e.JobStatus[j].ConnectStatus = int32(Connecting)
			e.JobStatus[j].ProcID = procID
			e.JobStatus[j].JobID = jobID
			e.ActiveTransfers++
			if _, err := t.area.Swap(entries); err != nil {
				return 0, err
			}
			t.rebuildIndex()
			return j, nil
		}
	}
	return 0, errors.New(errors.FSASlotUnavailable, alias)
}

// ReleaseSlot returns slot j of alias to DISCONNECT and decrements
// active_transfers, the completion half of ClaimSlot.
func (t *Table) ReleaseSlot(alias string, j int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.byAlias[alias]
	if !ok {
		return errors.New(errors.FSAHostNotFound, alias)
	}
	entries := append([]HostEntry(nil), t.area.Entries()...)
	e := &entries[i]
	if j < 0 || j >= len(e.JobStatus) {
		return errors.New(errors.FSASlotUnavailable, alias)
	}
	e.JobStatus[j] = JobStatus{ConnectStatus: int32(Disconnect), ProcID: NoID, JobID: uint32(NoID)}
	if e.ActiveTransfers > 0 {
		e.ActiveTransfers--
	}
	if _, err := t.area.Swap(entries); err != nil {
		return err
	}
	t.rebuildIndex()
	return nil
}

// RecordFailure performs the error-bookkeeping mutation from spec.md
// §4.3: shift error_history right by one, insert kind at [0], bump
// error_counter.
func (t *Table) RecordFailure(alias string, kind int32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.byAlias[alias]
	if !ok {
		return errors.New(errors.FSAHostNotFound, alias)
	}
	entries := append([]HostEntry(nil), t.area.Entries()...)
	e := &entries[i]
	for k := len(e.ErrorHistory) - 1; k > 0; k-- {
		e.ErrorHistory[k] = e.ErrorHistory[k-1]
	}
	e.ErrorHistory[0] = kind
	e.ErrorCounter++
	if _, err := t.area.Swap(entries); err != nil {
		return err
	}
	t.rebuildIndex()
	return nil
}

// IsErroneous reports whether alias has crossed max_errors (spec.md
// §4.6, "When error_counter == max_errors, the host is marked
// erroneous").
func (t *Table) IsErroneous(alias string) (bool, error) {
	e, err := t.Host(alias)
	if err != nil {
		return false, err
	}
	return e.ErrorCounter >= e.MaxErrors && e.MaxErrors > 0, nil
}

// ClearErrors resets error_counter and the first two error_history
// slots, the recovery half of RecordFailure triggered "by a single
// successful transfer" (spec.md §4.6) or by AdjustCounters reaching
// zero outstanding files (spec.md §4.6, "Job cleanup").
func (t *Table) ClearErrors(alias string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.byAlias[alias]
	if !ok {
		return errors.New(errors.FSAHostNotFound, alias)
	}
	entries := append([]HostEntry(nil), t.area.Entries()...)
	e := &entries[i]
	e.ErrorCounter = 0
	for k := 0; k < len(e.ErrorHistory) && k < 2; k++ {
		e.ErrorHistory[k] = 0
	}
	for j := range e.JobStatus {
		if ConnectStatus(e.JobStatus[j].ConnectStatus) == NotWorking {
			e.JobStatus[j].ConnectStatus = int32(Disconnect)
		}
	}
	if _, err := t.area.Swap(entries); err != nil {
		return err
	}
	t.rebuildIndex()
	return nil
}

// AdjustCounters atomically adds deltaFiles/deltaBytes to
// total_file_counter/total_file_size, the counter half of
// remove_job_files (spec.md §4.6): "Atomically decrement
// total_file_counter and total_file_size ... on reaching zero, clear
// error_counter, zero first two slots of error_history, and convert
// NOT_WORKING slots to DISCONNECT".
func (t *Table) AdjustCounters(alias string, deltaFiles int64, deltaBytes int64) error {
	t.mu.Lock()
	i, ok := t.byAlias[alias]
	if !ok {
		t.mu.Unlock()
		return errors.New(errors.FSAHostNotFound, alias)
	}
	entries := append([]HostEntry(nil), t.area.Entries()...)
	e := &entries[i]
	e.TotalFileCounter += deltaFiles
	if e.TotalFileCounter < 0 {
		e.TotalFileCounter = 0
	}
	e.TotalFileSize += deltaBytes
	if e.TotalFileSize < 0 {
		e.TotalFileSize = 0
	}
	reachedZero := e.TotalFileCounter == 0 && e.TotalFileSize == 0
	t.mu.Unlock()

	if _, err := t.area.Swap(entries); err != nil {
		return err
	}
	t.mu.Lock()
	t.rebuildIndex()
	t.mu.Unlock()

	if reachedZero {
		return t.ClearErrors(alias)
	}
	return nil
}

// CheckEntries is the consistency sweep (spec.md §4.3,
// "check_fsa_entries" / §8 invariant 3): whenever a host's queue is
// empty, active_transfers/total_file_counter/total_file_size/
// error_counter must be zero and every slot DISCONNECT with
// proc_id=-1, job_id=NO_ID. Deviations are corrected in place and the
// number of corrected hosts is returned.
func (t *Table) CheckEntries() (int, error) {
	t.mu.Lock()
	entries := append([]HostEntry(nil), t.area.Entries()...)
	t.mu.Unlock()

	corrected := 0
	for i := range entries {
		e := &entries[i]
		quiescent := e.TotalFileCounter == 0 && e.TotalFileSize == 0
		if !quiescent {
			continue
		}
		dirty := false
		if e.ActiveTransfers != 0 {
			e.ActiveTransfers = 0
			dirty = true
		}
		if e.ErrorCounter != 0 {
			e.ErrorCounter = 0
			dirty = true
		}
		if e.ErrorHistory[0] != 0 || e.ErrorHistory[1] != 0 {
			e.ErrorHistory[0] = 0
			e.ErrorHistory[1] = 0
			dirty = true
		}
		for j := range e.JobStatus {
			js := &e.JobStatus[j]
			if ConnectStatus(js.ConnectStatus) != Disconnect || js.ProcID != NoID || js.JobID != uint32(NoID) {
				js.ConnectStatus = int32(Disconnect)
				js.ProcID = NoID
				js.JobID = uint32(NoID)
				dirty = true
			}
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

// SetFlag / ClearFlag toggle a feature-flag bit in the area header
// (spec.md §4.3, "Enable/disable flags ... toggled from afdcfg; all
// daemons observe immediately").
func (t *Table) SetFlag(bit uint8) (uint32, error) {
	t.mu.Lock()
	entries := append([]HostEntry(nil), t.area.Entries()...)
	t.mu.Unlock()
	return t.area.SwapWithFlags(entries, t.area.Header().Flags|bit)
}

func (t *Table) ClearFlag(bit uint8) (uint32, error) {
	t.mu.Lock()
	entries := append([]HostEntry(nil), t.area.Entries()...)
	t.mu.Unlock()
	return t.area.SwapWithFlags(entries, t.area.Header().Flags&^bit)
}

// HasFlag reports whether bit is currently set in the header flags.
func (t *Table) HasFlag(bit uint8) bool {
	return t.area.Header().Flags&bit != 0
}

// Snapshot returns a copy of every host entry currently attached, for
// read-only fan-out consumers (statistics sampling, fra-view-style
// inspection) that shouldn't take t's mutex directly.
func (t *Table) Snapshot() []HostEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]HostEntry(nil), t.area.Entries()...)
}
