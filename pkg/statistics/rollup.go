// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package statistics

import "time"

// advance folds stale buckets forward to now's position in the ring
// and returns the indices the caller should add this sample's delta
// into. When the wall-clock day has moved on since dayCounter, the
// day ring's running total is folded into year[dayCounter] and the
// day ring cleared; same for hour into day[hourCounter]. This mirrors
// the nesting read_afd_stat_db.c documents (year[day], day[hour],
// hour[secBucket]) without a verbatim source for the fold step itself.
func advance(year, day, hour []Counters, dayCounter, hourCounter *int32, now time.Time) bucketIndices {
	b := bucketsFor(now)

	if int(*dayCounter) != b.day {
		var sum Counters
		for _, c := range day {
			sum.Add(c)
		}
		year[*dayCounter].Add(sum)
		for i := range day {
			day[i] = Counters{}
		}
		*dayCounter = int32(b.day)
	}

	if int(*hourCounter) != b.hour {
		var sum Counters
		for _, c := range hour {
			sum.Add(c)
		}
		day[*hourCounter].Add(sum)
		for i := range hour {
			hour[i] = Counters{}
		}
		*hourCounter = int32(b.hour)
	}

	return b
}

// Totals sums a full ring (year + current day + current hour) into a
// single Counters, the value show_bench_stat.c accumulates when asked
// to report a host/directory's all-time activity.
func Totals(year, day, hour []Counters) Counters {
	var sum Counters
	for _, c := range year {
		sum.Add(c)
	}
	for _, c := range day {
		sum.Add(c)
	}
	for _, c := range hour {
		sum.Add(c)
	}
	return sum
}
