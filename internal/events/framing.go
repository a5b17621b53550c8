// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/stratastor/afd/pkg/errors"
)

// FrameText renders a TextRecord as "DD HH:MM:SS S message\n".
func FrameText(r TextRecord) []byte {
	return []byte(fmt.Sprintf("%02d %02d:%02d:%02d %c %s\n",
		r.Time.Day(), r.Time.Hour(), r.Time.Minute(), r.Time.Second(),
		r.Severity, r.Message))
}

// FrameDelete renders a DeleteLogRecord in the fixed binary layout:
// file_size, dir_id, job_id, input_time, split_job_counter, unique_number,
// file_name_length, variable file name, reason hex code, free-form trailer.
func FrameDelete(r DeleteLogRecord) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, r.FileSize)
	binary.Write(&buf, binary.BigEndian, r.DirID)
	binary.Write(&buf, binary.BigEndian, r.JobID)
	binary.Write(&buf, binary.BigEndian, r.InputTime.Unix())
	binary.Write(&buf, binary.BigEndian, r.SplitJobCounter)
	binary.Write(&buf, binary.BigEndian, r.UniqueNumber)
	binary.Write(&buf, binary.BigEndian, uint32(len(r.FileName)))
	buf.WriteString(r.FileName)
	binary.Write(&buf, binary.BigEndian, uint32(r.Reason))
	trailer := []byte(r.Trailer)
	binary.Write(&buf, binary.BigEndian, uint32(len(trailer)))
	buf.Write(trailer)
	return buf.Bytes()
}

// ParseDelete is the read-side counterpart of FrameDelete, used by tests
// and by any tool that replays delete_log for auditing.
func ParseDelete(data []byte) (DeleteLogRecord, error) {
	var r DeleteLogRecord
	buf := bytes.NewReader(data)

	var inputUnix int64
	var nameLen, reason, trailerLen uint32

	fields := []any{&r.FileSize, &r.DirID, &r.JobID, &inputUnix, &r.SplitJobCounter, &r.UniqueNumber, &nameLen}
	for _, f := range fields {
		if err := binary.Read(buf, binary.BigEndian, f); err != nil {
			return r, errors.New(errors.LogFrameInvalid, err.Error())
		}
	}

	name := make([]byte, nameLen)
	if _, err := buf.Read(name); err != nil {
		return r, errors.New(errors.LogFrameInvalid, "short file name")
	}
	r.FileName = string(name)

	if err := binary.Read(buf, binary.BigEndian, &reason); err != nil {
		return r, errors.New(errors.LogFrameInvalid, err.Error())
	}
	r.Reason = DeleteReason(reason)

	if err := binary.Read(buf, binary.BigEndian, &trailerLen); err != nil {
		return r, errors.New(errors.LogFrameInvalid, err.Error())
	}
	trailer := make([]byte, trailerLen)
	if _, err := buf.Read(trailer); err != nil {
		return r, errors.New(errors.LogFrameInvalid, "short trailer")
	}
	r.Trailer = string(trailer)
	r.InputTime = time.Unix(inputUnix, 0).UTC()

	return r, nil
}

// FrameProduction renders a ProductionLogRecord with a self-inclusive
// 2-byte big-endian length prefix: the prefix encodes the length of the
// *entire* record, prefix included. This resolves the Open Question in
// SPEC_FULL.md §9.2 by building the payload first, then prepending
// len(payload)+2.
func FrameProduction(r ProductionLogRecord) []byte {
	payload := fmt.Sprintf("%d:%d|%d_%d_%d|%d|%d|%s|%s|%s\n",
		r.Ratio1, r.Ratio2,
		r.Ctime.Unix(), r.Unique, r.Split,
		r.DirID, r.JobID,
		r.OrigName, r.NewName, r.Command)

	total := len(payload) + 2
	out := make([]byte, 0, total)
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(total))
	out = append(out, lenBuf[:]...)
	out = append(out, payload...)
	return out
}

// ParseProduction strips the self-inclusive length prefix and returns the
// payload string (the caller can further split on '|').
func ParseProduction(data []byte) (string, error) {
	if len(data) < 2 {
		return "", errors.New(errors.LogFrameInvalid, "record shorter than length prefix")
	}
	total := binary.BigEndian.Uint16(data[:2])
	if int(total) != len(data) {
		return "", errors.New(errors.LogFrameInvalid,
			fmt.Sprintf("declared length %d does not match record length %d", total, len(data)))
	}
	return string(data[2:]), nil
}
