// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package registry implements C2: the name and path registry that AMG
// and the workers consult to turn a job's parameters into a stable
// job_id and to resolve directory aliases, file-mask patterns and
// stored passwords. JobEntry/DirNameEntry/FileMaskEntry are the fixed
// size records riding sharedarea.Area; the variable-length text each
// one refers to (option lines, directory path, mask pattern) lives in
// a companion NUL-separated blob file, the same split the original
// JID/DNB/FILE_MASK files make between the struct array and its
// strings.
package registry

// JobEntry is one JID record: a job's recipient/options signature, not
// its current transfer state (that's FRA/FSA). job_id is the stable
// hash AMG and the workers both derive from the same signature bytes,
// so two jobs with identical options collapse onto one entry.
type JobEntry struct {
	JobID         uint32
	DirIDIndex    int32 // index into the DNB area
	FileMaskIndex int32 // index into the file-mask area
	Priority      byte
	_             [3]byte // padding to keep the struct 4-byte aligned
	BlobOffset    int64
	BlobLength    int64
}

// DirNameEntry is one DNB record: a directory id paired with the full
// path it denotes, so FRA entries can refer to a short int rather than
// repeating the path in every shared area that needs it.
type DirNameEntry struct {
	DirID      uint32
	BlobOffset int64
	BlobLength int64
}

// FileMaskEntry is one file-mask dictionary record: the NUL-separated
// list of patterns a DIR_CONFIG entry filters on, with negated entries
// (a leading '!') identified by NegatedCount so matching can try
// negations first the way eval_file_mask does.
type FileMaskEntry struct {
	ID            uint32
	PatternCount  int32
	NegatedCount  int32
	BlobOffset    int64
	BlobLength    int64
}

const (
	jidVersion      uint8 = 1
	dnbVersion      uint8 = 1
	fileMaskVersion uint8 = 1
)
