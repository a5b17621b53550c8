// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"sync"

	"github.com/stratastor/afd/internal/constants"
	"github.com/stratastor/afd/pkg/errors"
	"github.com/stratastor/afd/pkg/sharedarea"
)

// Table is the in-memory MSA: one MSAEntry per monitored remote AFD,
// rebuilt from the mapped generation on Load/Swap exactly like
// pkg/fsa.Table and pkg/fra.Table.
type Table struct {
	mu      sync.Mutex
	area    *sharedarea.Area[MSAEntry]
	byAlias map[string]int
}

// NewTable binds a Table to fifoDir's MSA_STAT_FILE/MSA_ID_FILE pair.
func NewTable(fifoDir string) *Table {
	return &Table{
		area:    sharedarea.New[MSAEntry](fifoDir, constants.MsaStatFileBase, constants.MsaIDFile, version),
		byAlias: make(map[string]int),
	}
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

func aliasString(b [constants.MaxHostnameLength]byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

func setAlias(dst *[constants.MaxHostnameLength]byte, s string) {
	*dst = [constants.MaxHostnameLength]byte{}
	copy(dst[:], s)
}

// Entry returns a copy of the MSAEntry for alias.
func (t *Table) Entry(alias string) (MSAEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.byAlias[alias]
	if !ok {
		return MSAEntry{}, errors.New(errors.MonitorConnectFailed, alias).
			WithMetadata("reason", "not registered in MSA")
	}
	return t.area.Entries()[i], nil
}

// Register adds alias to the MSA if absent, persisting a new
// generation. It is a no-op (returning generation 0) if alias is
// already present.
func (t *Table) Register(alias string, maxConnections int32) (uint32, error) {
	t.mu.Lock()
	if _, ok := t.byAlias[alias]; ok {
		t.mu.Unlock()
		return 0, nil
	}
	next := append([]MSAEntry{}, t.area.Entries()...)
	var e MSAEntry
	setAlias(&e.Alias, alias)
	e.MaxConnections = maxConnections
	next = append(next, e)
	t.mu.Unlock()

	gen, err := t.area.Swap(next)
	if err != nil {
		return 0, err
	}
	return gen, t.Load()
}

// Update applies fn to alias's entry and persists the result through a
// generation swap (the same snapshot-copy-mutate-then-Swap pattern used
// throughout pkg/fsa and pkg/fra).
func (t *Table) Update(alias string, fn func(e *MSAEntry)) (uint32, error) {
	t.mu.Lock()
	i, ok := t.byAlias[alias]
	if !ok {
		t.mu.Unlock()
		return 0, errors.New(errors.MonitorConnectFailed, alias)
	}
	next := append([]MSAEntry{}, t.area.Entries()...)
	fn(&next[i])
	t.mu.Unlock()

	gen, err := t.area.Swap(next)
	if err != nil {
		return 0, err
	}
	return gen, t.Load()
}

// PushSysLog appends ch to alias's sys-log severity ring (spec.md §3
// "sys-log fifo ring of severity chars"), dropping the oldest char.
func PushSysLog(e *MSAEntry, ch byte) {
	copy(e.SysLogRing[:], e.SysLogRing[1:])
	e.SysLogRing[SysLogRingSize-1] = ch
}

// Snapshot returns copies of every MSA entry.
func (t *Table) Snapshot() []MSAEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	entries := t.area.Entries()
	out := make([]MSAEntry, len(entries))
	copy(out, entries)
	return out
}
