// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/stratastor/afd/internal/constants"
	"github.com/stratastor/afd/pkg/errors"
	"github.com/stratastor/afd/pkg/sharedarea"
)

// FileMaskRegistry mirrors the file-mask dictionary: the NUL-separated
// list of shell-glob patterns a DIR_CONFIG entry filters incoming
// filenames against, evaluated the way eval_file_mask does — negated
// patterns (a leading '!') are checked first, and a match against one
// of them excludes the file regardless of any positive pattern that
// would otherwise match.
type FileMaskRegistry struct {
	mu    sync.Mutex
	area  *sharedarea.Area[FileMaskEntry]
	blob  *blobStore
	index map[uint32]int
	next  uint32
}

// NewFileMaskRegistry binds a FileMaskRegistry to fifoDir's
// FILE_MASK_FILE/ID pair.
func NewFileMaskRegistry(fifoDir string) *FileMaskRegistry {
	return &FileMaskRegistry{
		area:  sharedarea.New[FileMaskEntry](fifoDir, constants.FileMaskFile, constants.FileMaskFile+"_ID", fileMaskVersion),
		blob:  newBlobStore(fifoDir, constants.FileMaskFile+".patterns"),
		index: make(map[uint32]int),
	}
}

// Load attaches the current generation.
func (r *FileMaskRegistry) Load() error {
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
		r.index[e.ID] = i
		if e.ID >= r.next {
			r.next = e.ID + 1
		}
	}
	return nil
}

// Register stores patterns (a DIR_CONFIG entry's file-mask line,
// already split on comma) and returns its id. Patterns beginning with
// '!' are negations; they are counted but not reordered, so Patterns
// keeps the caller's original order for display purposes.
func (r *FileMaskRegistry) Register(patterns []string) (uint32, error) {
	r.mu.Lock()
	id := r.next
	r.mu.Unlock()

	negated := 0
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			negated++
		}
	}

	offset, length := r.blob.Append(strings.Join(patterns, "\x00"))

	r.mu.Lock()
	entries := append(append([]FileMaskEntry{}, r.area.Entries()...), FileMaskEntry{
		ID:           id,
		PatternCount: int32(len(patterns)),
		NegatedCount: int32(negated),
		BlobOffset:   offset,
		BlobLength:   length,
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
	r.next = id + 1
	return id, nil
}

// Patterns returns the pattern list stored under id.
func (r *FileMaskRegistry) Patterns(id uint32) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return nil, errors.New(errors.RegistryFileMaskNotFound, "file-mask id not found")
	}
	e := r.area.Entries()[i]
	blob := r.blob.Read(e.BlobOffset, e.BlobLength)
	if blob == "" {
		return nil, nil
	}
	return strings.Split(blob, "\x00"), nil
}

// Match reports whether name satisfies the mask stored under id:
// negated patterns are evaluated first and, on a match, exclude the
// file outright; otherwise the file matches if any positive pattern
// matches.
func (r *FileMaskRegistry) Match(id uint32, name string) (bool, error) {
	patterns, err := r.Patterns(id)
	if err != nil {
		return false, err
	}

	matchedPositive := false
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			ok, _ := filepath.Match(p[1:], name)
			if ok {
				return false, nil
			}
			continue
		}
		ok, _ := filepath.Match(p, name)
		if ok {
			matchedPositive = true
		}
	}
	return matchedPositive, nil
}
