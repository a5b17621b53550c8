// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package monitor implements C7: the MSA (Monitor Status Area) and the
// afd_mon <-> afdd line-based wire protocol (spec.md §4.7, §6 "Monitor
// wire protocol").
package monitor

import "github.com/stratastor/afd/internal/constants"

// LEDState is a monitor process's traffic-light color id, as rendered
// by the GUI viewers this repo does not implement (spec.md §4.7
// "setting LED fields to the returned colour ids").
type LEDState int32

const (
	LEDNormal LEDState = iota
	LEDWarning
	LEDError
	LEDUnknown
)

// SysLogRingSize is the length of the per-remote-AFD severity-char ring buffer (spec.md
// §3 "sys-log fifo ring of severity chars").
const SysLogRingSize = 10

// LogHistorySize is the fixed width of the RH/SH/TH 360-slot log
// histories (spec.md §4.7).
const LogHistorySize = 360

// MSAEntry is one MSA record (spec.md §3 "MSA element").
type MSAEntry struct {
	Alias          [constants.MaxHostnameLength]byte
	ConnectStatus  int32
	FilesCount     int64 // fc
	FilesSize      int64 // fs
	TransferRate   int64 // tr
	FilesReceived  int64 // fr
	JobsQueued     int32 // jq
	ActiveTransfers int32 // at
	ErrorCounter   int32 // ec
	ErrorHistory   [8]int32
	SysLogRing     [SysLogRingSize]byte
	ReceiveHist    [LogHistorySize]int32
	SysHist        [LogHistorySize]int32
	TransHist      [LogHistorySize]int32
	AMGLed         int32
	FDLed          int32
	ArchiveWatchLed int32
	MaxConnections int32
}

const version uint8 = 1

// JobListEntry is one "JL" line reply: per-remote job summary (spec.md
// §4.7 "JL <i> <jid> <dirid> <cnt> <prio> <recipient>").
type JobListEntry struct {
	Index     int
	JobID     uint32
	DirID     uint32
	Count     int
	Priority  byte
	Recipient string
}
