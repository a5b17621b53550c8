// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFrameTextLayout(t *testing.T) {
	ts := time.Date(2026, 7, 31, 9, 5, 3, 0, time.UTC)
	out := FrameText(TextRecord{Time: ts, Severity: 'I', Message: "hello"})
	require.Equal(t, "31 09:05:03 I hello\n", string(out))
}

func TestDeleteLogRoundTrip(t *testing.T) {
	rec := DeleteLogRecord{
		FileSize:        8192,
		DirID:           7,
		JobID:           42,
		InputTime:       time.Unix(1700000000, 0).UTC(),
		SplitJobCounter: 1,
		UniqueNumber:    99,
		FileName:        "f.txt",
		Reason:          ReasonAgeInput,
		Trailer:         "dir_check >120 (amg)",
	}

	framed := FrameDelete(rec)
	parsed, err := ParseDelete(framed)
	require.NoError(t, err)

	require.Equal(t, rec.FileSize, parsed.FileSize)
	require.Equal(t, rec.DirID, parsed.DirID)
	require.Equal(t, rec.JobID, parsed.JobID)
	require.Equal(t, rec.InputTime.Unix(), parsed.InputTime.Unix())
	require.Equal(t, rec.FileName, parsed.FileName)
	require.Equal(t, rec.Reason, parsed.Reason)
	require.Equal(t, rec.Trailer, parsed.Trailer)
}

// TestProductionLogLengthIsSelfInclusive pins the Open Question resolution
// in SPEC_FULL.md §9.2: the 2-byte prefix counts itself.
func TestProductionLogLengthIsSelfInclusive(t *testing.T) {
	rec := ProductionLogRecord{
		Ratio1: 1, Ratio2: 1,
		Ctime: time.Unix(1700000000, 0).UTC(), Unique: 5, Split: 0,
		DirID: 3, JobID: 9,
		OrigName: "a.dat", NewName: "a.dat.out", Command: "gzip %s",
	}

	framed := FrameProduction(rec)
	require.Len(t, framed, int(framed[0])<<8|int(framed[1]))

	payload, err := ParseProduction(framed)
	require.NoError(t, err)
	require.Contains(t, payload, "a.dat|a.dat.out|gzip %s")
}

func TestParseProductionRejectsBadLength(t *testing.T) {
	framed := FrameProduction(ProductionLogRecord{OrigName: "x", NewName: "y"})
	framed[1]++ // corrupt the declared length
	_, err := ParseProduction(framed)
	require.Error(t, err)
}
