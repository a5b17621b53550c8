// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package statistics implements the rolling per-host and per-directory
// counter databases (spec.md §6 "etc/.../afd.stat, afd.istat" on-disk
// layout), grounded on original_source/src/statistics/read_afd_stat_db.c
// (output/host side) and read_afd_istat_db.c (input/directory side).
// Both keep the same shape: a year[]/day[]/hour[] ring of file/byte/
// connection/error counters per tracked key, with a running "previous"
// snapshot used to turn the live FSA/FRA cumulative counters into
// per-interval deltas.
//
// The original's advance-and-collapse logic (when exactly an hour's
// worth of seconds folds into a day bucket, and a day into a year
// bucket) lives in a file not included in the retrieval pack; the
// rollup here is an explicit design decision inferred from the struct
// shape show_bench_stat.c and read_afd_stat_db.c walk (year[day],
// day[hour], hour[sec_bucket]), documented in DESIGN.md.
package statistics

import "time"

const (
	// DaysPerYear bounds the year ring (read_afd_stat_db.c: "if
	// (p_ts->tm_yday >= DAYS_PER_YEAR) stat_db[i].day_counter = 0").
	DaysPerYear = 366

	// HoursPerDay bounds the day ring.
	HoursPerDay = 24

	// StatRescanTime is the interval between counter samples; the
	// original derives SECS_PER_HOUR from 3600/STAT_RESCAN_TIME.
	StatRescanTime = 5 * time.Second

	// SecsPerHour bounds the hour ring: one bucket per StatRescanTime
	// slice of an hour.
	SecsPerHour = 3600 / 5
)

// Counters is one struct-statistics sample: files, bytes, connections
// and errors accumulated in a single bucket (show_bench_stat.c's
// nfs/nbs/nc/ne fields).
type Counters struct {
	Files       uint64
	Bytes       uint64
	Connections uint64
	Errors      uint64
}

// Add accumulates delta into c.
func (c *Counters) Add(delta Counters) {
	c.Files += delta.Files
	c.Bytes += delta.Bytes
	c.Connections += delta.Connections
	c.Errors += delta.Errors
}

// delta computes cur-prev clamped to zero per field, treating any
// field that went backwards as a counter reset (the new baseline
// becomes the entire current value, mirroring the original's handling
// of a freshly re-created FSA/FRA entry).
func delta(prev, cur Counters) Counters {
	d := Counters{}
	d.Files = diff(prev.Files, cur.Files)
	d.Bytes = diff(prev.Bytes, cur.Bytes)
	d.Connections = diff(prev.Connections, cur.Connections)
	d.Errors = diff(prev.Errors, cur.Errors)
	return d
}

func diff(prev, cur uint64) uint64 {
	if cur < prev {
		return cur
	}
	return cur - prev
}

// bucketIndices is the (yday, hour, secBucket) triple read_afd_stat_db.c
// computes from gmtime(now) to place a sample in the ring.
type bucketIndices struct {
	day  int
	hour int
	sec  int
}

func bucketsFor(now time.Time) bucketIndices {
	u := now.UTC()
	yday := u.YearDay() - 1
	if yday >= DaysPerYear || yday < 0 {
		yday = 0
	}
	sec := ((u.Minute() * 60) + u.Second()) / int(StatRescanTime/time.Second)
	if sec >= SecsPerHour {
		sec = SecsPerHour - 1
	}
	return bucketIndices{day: yday, hour: u.Hour(), sec: sec}
}
