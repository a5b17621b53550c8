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

// DirSnapshot is the live counter state sampled out of an FRA
// directory entry (FilesReceived, BytesReceived) each StatRescanTime
// tick. Errors/Connections have no directory-side analogue in the
// original (afd.istat tracks arrivals, not transfer attempts), so
// DirSnapshot only carries the two fields read_afd_istat_db.c reads.
type DirSnapshot struct {
	Alias         string
	FilesReceived uint64
	BytesReceived uint64
}

// DirRecord is one afd.istat entry (read_afd_istat_db.c's struct
// afdistat, input/directory side).
type DirRecord struct {
	DirAlias    [constants.MaxDirAlias]byte
	StartTime   int64
	DayCounter  int32
	HourCounter int32
	SecCounter  int32
	Year        [DaysPerYear]Counters
	Day         [HoursPerDay]Counters
	Hour        [SecsPerHour]Counters

	prev Counters
}

// Alias returns the directory alias with its trailing NUL padding
// trimmed.
func (r DirRecord) Alias() string {
	return trimZero(r.DirAlias[:])
}

// DirDB holds afd.istat's records in memory only: one DirRecord per
// directory alias currently known to the FRA. Nothing writes them to
// disk.
type DirDB struct {
	mu      sync.Mutex
	records map[string]*DirRecord
}

// NewDirDB returns an empty directory statistics database.
func NewDirDB() *DirDB {
	return &DirDB{records: make(map[string]*DirRecord)}
}

// Sync folds one sampling round into the database, seeding unseen
// directories the way read_afd_istat_db.c seeds a directory with no
// prior position, and rolling tracked ones forward otherwise.
func (db *DirDB) Sync(now time.Time, snapshots []DirSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, s := range snapshots {
		rec, ok := db.records[s.Alias]
		cur := Counters{Files: s.FilesReceived, Bytes: s.BytesReceived}

		if !ok {
			rec = &DirRecord{StartTime: now.Unix(), prev: cur}
			setAlias(rec.DirAlias[:], s.Alias)
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
func (db *DirDB) Record(alias string) (DirRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	rec, ok := db.records[alias]
	if !ok {
		return DirRecord{}, errors.New(errors.StatisticsDirNotFound, alias)
	}
	return *rec, nil
}

// Snapshot returns a copy of every tracked record, in no particular
// order.
func (db *DirDB) Snapshot() []DirRecord {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]DirRecord, 0, len(db.records))
	for _, rec := range db.records {
		out = append(out, *rec)
	}
	return out
}
