// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package statistics

import (
	"sync"
	"time"

	"github.com/stratastor/afd/internal/constants"
	"github.com/stratastor/afd/pkg/errors"
)

// HostSnapshot is the live counter state the caller samples out of an
// FSA host entry (TotalFileCounter, TotalFileSize, ErrorCounter, plus
// a connection count the caller tracks) each StatRescanTime tick. A
// narrow value type keeps this package independent of pkg/fsa's
// layout, the same seam pkg/queue's FSACounters uses.
type HostSnapshot struct {
	Alias       string
	Files       uint64
	Bytes       uint64
	Errors      uint64
	Connections uint64
}

// HostRecord is one afd.stat entry (read_afd_stat_db.c's struct afdstat,
// output/host side).
type HostRecord struct {
	Hostname    [constants.MaxHostnameLength]byte
	StartTime   int64
	DayCounter  int32
	HourCounter int32
	SecCounter  int32
	Year        [DaysPerYear]Counters
	Day         [HoursPerDay]Counters
	Hour        [SecsPerHour]Counters

	prev Counters
}

// Alias returns the hostname with its trailing NUL padding trimmed.
func (r HostRecord) Alias() string {
	return trimZero(r.Hostname[:])
}

// HostDB holds afd.stat's records in memory only: one HostRecord per
// host alias currently known to the FSA. Nothing writes them to disk.
type HostDB struct {
	mu      sync.Mutex
	records map[string]*HostRecord
}

// NewHostDB returns an empty host statistics database.
func NewHostDB() *HostDB {
	return &HostDB{records: make(map[string]*HostRecord)}
}

// Sync folds one sampling round of snapshots into the database: hosts
// seen for the first time are seeded the way read_afd_stat_db.c seeds
// a host with no prior position (start_time=now, rings zeroed,
// prev=current so the first Sync never reports a spurious delta);
// hosts already tracked get their bucket rolled forward and the
// cur-prev delta added to the current second bucket.
func (db *HostDB) Sync(now time.Time, snapshots []HostSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, s := range snapshots {
		rec, ok := db.records[s.Alias]
		cur := Counters{Files: s.Files, Bytes: s.Bytes, Errors: s.Errors, Connections: s.Connections}

		if !ok {
			rec = &HostRecord{StartTime: now.Unix(), prev: cur}
			setAlias(rec.Hostname[:], s.Alias)
			b := bucketsFor(now)
			rec.DayCounter = int32(b.day)
			rec.HourCounter = int32(b.hour)
			rec.SecCounter = int32(b.sec)
			db.records[s.Alias] = rec
			continue
		}

		b := advance(rec.Year[:], rec.Day[:], rec.Hour[:], &rec.DayCounter, &rec.HourCounter, now)
		rec.SecCounter = int32(b.sec)
		rec.Hour[b.sec].Add(delta(rec.prev, cur))
		rec.prev = cur
	}
}

// Record returns a copy of the tracked record for alias.
func (db *HostDB) Record(alias string) (HostRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	rec, ok := db.records[alias]
	if !ok {
		return HostRecord{}, errors.New(errors.StatisticsHostNotFound, alias)
	}
	return *rec, nil
}

// Snapshot returns a copy of every tracked record, in no particular
// order.
func (db *HostDB) Snapshot() []HostRecord {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]HostRecord, 0, len(db.records))
	for _, rec := range db.records {
		out = append(out, *rec)
	}
	return out
}

func setAlias(dst []byte, alias string) {
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, alias)
}

func trimZero(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}
