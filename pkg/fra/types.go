// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package fra implements C4: the directory-status area, one entry per
// watched directory, carrying both its DIR_CONFIG-derived policy and
// its live retrieval counters (spec.md §3 "Directory entry", §4.4).
package fra

import "github.com/stratastor/afd/internal/constants"

// Status is a directory's live scan/retrieve state.
type Status int32

const (
	StatusNormal Status = iota
	StatusScanning
	StatusError
	StatusDisabled
)

// DirFlag is a bit in a DirEntry's DirFlag union (spec.md §4.4).
type DirFlag uint32

const (
	FlagMaxCopied        DirFlag = 1 << 0
	FlagFilesInQueue     DirFlag = 1 << 1
	FlagAddTimeEntry     DirFlag = 1 << 2
	FlagLinkNoExec       DirFlag = 1 << 3
	FlagDirDisabled      DirFlag = 1 << 4
	FlagAcceptDotFiles   DirFlag = 1 << 5
	FlagDontGetDirList   DirFlag = 1 << 6
	FlagDirErrorSet      DirFlag = 1 << 7
	FlagWarnTimeReached  DirFlag = 1 << 8
	FlagInSameFilesystem DirFlag = 1 << 9
	FlagDoNotLinkFiles   DirFlag = 1 << 10
	FlagRenameOneJobOnly DirFlag = 1 << 11
)

// HeaderFlagDisableDirWarnTime is the FRA header's feature-flag bit
// (spec.md §4.4: "Its flag byte in the header holds
// DISABLE_DIR_WARN_TIME").
const HeaderFlagDisableDirWarnTime uint8 = 1 << 0

// TimeEntry is a cron-style bd_time_entry bitmask window (spec.md §3):
// minute (0-59), hour (0-23), day-of-month (1-31), month (1-12),
// day-of-week (0-6, Sunday=0), each a bitmask of permitted values.
type TimeEntry struct {
	Minute     uint64
	Hour       uint32
	DayOfMonth uint32
	Month      uint16
	DayOfWeek  uint8
}

// DirEntry is one FRA record (spec.md §3 "Directory entry").
type DirEntry struct {
	Alias              [constants.MaxDirAlias]byte
	URL                [constants.MaxRecipientLength]byte
	FSAPos             int32
	Protocol           uint32
	Priority           byte
	_                  [3]byte
	DirID              uint32
	DeleteAgeLimit     int32 // age_limit, seconds
	ReportFlag         uint8
	_                  [3]byte
	MaxCopiedFiles     int32
	MaxCopiedFileSize  int64
	BytesReceived      int64
	FilesReceived      int64
	FilesInDir         int32
	BytesInDir         int64
	FilesQueued        int32
	BytesInQueue       int64
	NextCheckTime      int64
	LastRetrieval      int64
	DirFlag            uint32
	Status             int32
	DupCheckFlag       uint8
	_                  [3]byte
	DupCheckTimeout    int32
	WarnTime           int64
	TimeEntry          TimeEntry
	StupidMode         int32
}

// StupidMode values (spec.md §4.5 "check_list"): GetOnceOnly skips a
// file permanently once retrieved; GetAlways re-fetches whenever
// size/mtime change.
const (
	StupidModeGetOnceOnly int32 = iota
	StupidModeGetAlways
)

const version uint8 = 1
