// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package events implements the log fanout (SPEC_FULL.md component C10):
// framed records written to the fifos that feed AFD's log-writer
// processes. Writers are responsible only for framing — rotation policy
// is external, per spec.md §4.10.
package events

import "time"

// Kind identifies which of the seven rotating logs a record belongs to.
type Kind int

const (
	KindSystem Kind = iota
	KindTransfer
	KindReceive
	KindDelete
	KindProduction
	KindInput
	KindOutput
)

func (k Kind) String() string {
	switch k {
	case KindSystem:
		return "system_log"
	case KindTransfer:
		return "transfer_log"
	case KindReceive:
		return "receive_log"
	case KindDelete:
		return "delete_log"
	case KindProduction:
		return "production_log"
	case KindInput:
		return "input_log"
	case KindOutput:
		return "output_log"
	default:
		return "unknown_log"
	}
}

// DeleteReason is the hex reason code stored in a delete_log record.
type DeleteReason int

const (
	ReasonAgeInput    DeleteReason = 0x01 // AGE_INPUT — age-limit exclusion, §4.5
	ReasonOtherDel    DeleteReason = 0x02 // OTHER_DEL — generic cleanup (remove_job_files, recreate failure)
	ReasonHostDisabled DeleteReason = 0x03 // HOST_DISABLED — time-anchored job removed because host disabled
	ReasonDuplicate   DeleteReason = 0x04 // duplicate-check suppression
	ReasonUserDelete  DeleteReason = 0x05 // operator-requested delete
)

// TextRecord is one line of system_log / receive_log / transfer_log:
// "DD HH:MM:SS S <message>", severity S one of I/W/E/F/D/C, overridden to
// O for offline-suppressed directories (spec.md §4.10/§7).
type TextRecord struct {
	Time     time.Time
	Severity byte
	Message  string
}

// DeleteLogRecord is the fixed-format binary delete_log record (§4.10).
type DeleteLogRecord struct {
	FileSize        int64
	DirID           uint32
	JobID           uint32
	InputTime       time.Time
	SplitJobCounter uint32
	UniqueNumber    uint32
	FileName        string
	Reason          DeleteReason
	Trailer         string // free-form "dir_check%c>%d" style context
}

// ProductionLogRecord is one production_log entry (§4.10):
// <2-byte length><ratio_1:ratio_2|ctime_unique_split|dir_id|job_id|origname|newname|command>\n
type ProductionLogRecord struct {
	Ratio1    int
	Ratio2    int
	Ctime     time.Time
	Unique    uint32
	Split     uint32
	DirID     uint32
	JobID     uint32
	OrigName  string
	NewName   string
	Command   string
}
