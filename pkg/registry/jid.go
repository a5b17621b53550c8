// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"hash/crc32"
	"sync"

	"github.com/stratastor/afd/internal/constants"
	"github.com/stratastor/afd/pkg/errors"
	"github.com/stratastor/afd/pkg/sharedarea"
)

// JIDRegistry mirrors the Job ID Database (spec.md §3, "job_id is
// derived from the job's recipient/options signature so two DIR_CONFIG
// entries with identical options share one job_id"). It is append-only
// within a generation; entries are only dropped at the next Swap, once
// the caller has confirmed no FRA/queue entry still references them.
type JIDRegistry struct {
	mu    sync.Mutex
	area  *sharedarea.Area[JobEntry]
	blob  *blobStore
	index map[uint32]int // job_id -> index into the area's entries, for Lookup
}

// NewJIDRegistry binds a JIDRegistry to fifoDir's JOB_ID_DATA_FILE/ID
// file pair.
func NewJIDRegistry(fifoDir string) *JIDRegistry {
	return &JIDRegistry{
		area:  sharedarea.New[JobEntry](fifoDir, constants.JobIDDataFile, constants.JobIDDataFile+"_ID", jidVersion),
		blob:  newBlobStore(fifoDir, constants.JobIDDataFile+".options"),
		index: make(map[uint32]int),
	}
}

// Load attaches the current generation and the options blob.
func (r *JIDRegistry) Load() error {
	if err := r.area.Attach(); err != nil {
		return err
	}
	if err := r.blob.Load(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = make(map[uint32]int, len(r.area.Entries()))
	for i, e := range r.area.Entries() {
		r.index[e.JobID] = i
	}
	return nil
}

// JobID returns the stable job id for a signature (typically the
// concatenation of a DIR_CONFIG entry's recipient URL and its local/
// standard options), deriving it the same way across processes so
// independent AMG workers agree on the id without coordination.
func JobID(signature string) uint32 {
	return crc32.ChecksumIEEE([]byte(signature))
}

// Register ensures an entry exists for signature/dirID/fileMaskID,
// returning its job_id. If an entry already exists it is returned
// unchanged — job_id collapses identical option sets onto one record.
func (r *JIDRegistry) Register(signature string, dirID, fileMaskID int32, priority byte) (uint32, error) {
	id := JobID(signature)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[id]; ok {
		return id, nil
	}

	offset, length := r.blob.Append(signature)
	entries := append(append([]JobEntry{}, r.area.Entries()...), JobEntry{
		JobID:         id,
		DirIDIndex:    dirID,
		FileMaskIndex: fileMaskID,
		Priority:      priority,
		BlobOffset:    offset,
		BlobLength:    length,
	})

	if _, err := r.area.Swap(entries); err != nil {
		return 0, err
	}
	if err := r.blob.Flush(); err != nil {
		return 0, err
	}
	r.index[id] = len(entries) - 1
	return id, nil
}

// Lookup returns the entry and its option signature for job_id.
func (r *JIDRegistry) Lookup(jobID uint32) (JobEntry, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[jobID]
	if !ok {
		return JobEntry{}, "", errors.New(errors.RegistryJobNotFound, "job_id not found")
	}
	e := r.area.Entries()[i]
	return e, r.blob.Read(e.BlobOffset, e.BlobLength), nil
}

// Compact rewrites the area keeping only entries whose job_id appears
// in liveIDs, the Go analogue of JID garbage collection at AMG
// restart: FRA/queue entries that still reference a dropped job_id
// would fail Lookup and must be rebuilt by the caller before Compact
// is invoked.
func (r *JIDRegistry) Compact(liveIDs map[uint32]bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]JobEntry, 0, len(r.area.Entries()))
	for _, e := range r.area.Entries() {
		if liveIDs[e.JobID] {
			kept = append(kept, e)
		}
	}
	if _, err := r.area.Swap(kept); err != nil {
		return err
	}
	r.index = make(map[uint32]int, len(kept))
	for i, e := range kept {
		r.index[e.JobID] = i
	}
	return nil
}
