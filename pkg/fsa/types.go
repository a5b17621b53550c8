// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package fsa implements C3: the host-status area, the per-host live
// transfer table every FD worker, AMG, and viewer reads. It rides
// sharedarea.Area[HostEntry] for the generation-numbered mapped file
// and adds the slot-claim, error-bookkeeping, and consistency-sweep
// behavior spec.md describes for FSA specifically.
package fsa

import "github.com/stratastor/afd/internal/constants"

// ConnectStatus is a job_status slot's connection state.
type ConnectStatus int32

const (
	Disconnect ConnectStatus = iota
	Connecting
	Connected
	NotWorking
)

// NoID marks a slot with no job assigned.
const NoID int32 = -1

// Feature-flag bits in the FSA header's flags byte (spec.md §3,
// "Enable/disable flags").
const (
	FlagDisableArchive         uint8 = 1 << 0
	FlagDisableRetrieve        uint8 = 1 << 1
	FlagEnableCreateTargetDir  uint8 = 1 << 2
)

// JobStatus is one parallel transfer slot within a host's entry.
type JobStatus struct {
	ConnectStatus int32
	FileInUse     [64]byte
	BytesSent     int64
	ProcID        int32
	JobID         uint32
}

// HostEntry is one FSA record (spec.md §3, "Host entry (FSA element)").
// HostnameReal1/2 support hostname toggling; ErrorHistory is a short
// ring buffer of failure-kind codes, most recent at index 0.
type HostEntry struct {
	HostAlias        [constants.MaxHostnameLength]byte
	HostnameReal1    [constants.MaxHostnameLength]byte
	HostnameReal2    [constants.MaxHostnameLength]byte
	ToggleState      int32
	ToggleStr        [constants.MaxToggleStrLength]byte
	AllowedTransfers int32
	ActiveTransfers  int32
	TotalFileCounter int64
	TotalFileSize    int64
	ErrorCounter     int32
	ErrorHistory     [constants.MaxErrorHistory]int32
	MaxErrors        int32
	RetryInterval    int32
	TransferTimeout  int32
	BlockSize        int32
	Protocol         uint32
	SpecialFlag      uint8
	_                [3]byte
	LastRetryTime    int64
	JobStatus        [MaxParallelTransfers]JobStatus
}

// MaxParallelTransfers bounds a host's job_status array; the original
// sizes this to the largest allowed_transfers any DIR_CONFIG entry can
// request (AFD_WORD_OFFSET's sibling constant, MAX_NO_PARALLEL_JOBS).
const MaxParallelTransfers = 16

const version uint8 = 1
