// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"sync"

	"github.com/stratastor/afd/internal/constants"
	"github.com/stratastor/afd/pkg/errors"
	"github.com/stratastor/afd/pkg/sharedarea"
)

// DNBRegistry mirrors the Directory Name Database: a DIR_CONFIG
// watched directory path, mapped to the small integer id
// FRA/FSA entries embed instead of repeating the path (spec.md §3,
// "DirID").
type DNBRegistry struct {
	mu    sync.Mutex
	area  *sharedarea.Area[DirNameEntry]
	blob  *blobStore
	index map[uint32]int
	byDir map[string]uint32
	next  uint32
}

// NewDNBRegistry binds a DNBRegistry to fifoDir's DIR_NAME_FILE/ID pair.
func NewDNBRegistry(fifoDir string) *DNBRegistry {
	return &DNBRegistry{
		area:  sharedarea.New[DirNameEntry](fifoDir, constants.DirNameFile, constants.DirNameFile+"_ID", dnbVersion),
		blob:  newBlobStore(fifoDir, constants.DirNameFile+".paths"),
		index: make(map[uint32]int),
		byDir: make(map[string]uint32),
	}
}

// Load attaches the current generation and rebuilds the lookup indices.
func (r *DNBRegistry) Load() error {
	if err := r.area.Attach(); err != nil {
		return err
	}
	if err := r.blob.Load(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = make(map[uint32]int, len(r.area.Entries()))
	r.byDir = make(map[string]uint32, len(r.area.Entries()))
	for i, e := range r.area.Entries() {
		r.index[e.DirID] = i
		path := r.blob.Read(e.BlobOffset, e.BlobLength)
		r.byDir[path] = e.DirID
		if e.DirID >= r.next {
			r.next = e.DirID + 1
		}
	}
	return nil
}

// Register returns the existing dir id for path, or allocates and
// persists a new one.
func (r *DNBRegistry) Register(path string) (uint32, error) {
	r.mu.Lock()
	if id, ok := r.byDir[path]; ok {
		r.mu.Unlock()
		return id, nil
	}
	id := r.next
	r.mu.Unlock()

	offset, length := r.blob.Append(path)
	r.mu.Lock()
	entries := append(append([]DirNameEntry{}, r.area.Entries()...), DirNameEntry{
		DirID:      id,
		BlobOffset: offset,
		BlobLength: length,
	})
	r.mu.Unlock()

	if _, err := r.area.Swap(entries); err != nil {
		return 0, err
	}
	if err := r.blob.Flush(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.index[id] = len(entries) - 1
	r.byDir[path] = id
	r.next = id + 1
	return id, nil
}

// Path returns the directory path for dirID.
func (r *DNBRegistry) Path(dirID uint32) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[dirID]
	if !ok {
		return "", errors.New(errors.RegistryDirNotFound, "dir_id not found")
	}
	e := r.area.Entries()[i]
	return r.blob.Read(e.BlobOffset, e.BlobLength), nil
}
