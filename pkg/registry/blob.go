// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/stratastor/afd/pkg/errors"
)

// blobStore appends variable-length text (directory paths, file-mask
// pattern lists, job option blocks) to a single file and hands back
// byte offsets, the same struct-array/strings split JID, DNB and
// FILE_MASK keep in the original layout. It is rewritten in full on
// every Flush call, mirroring how sharedarea.Area.Swap replaces a
// whole generation rather than patching one record in place.
type blobStore struct {
	mu   sync.Mutex
	path string
	buf  []byte
}

func newBlobStore(dir, name string) *blobStore {
	return &blobStore{path: filepath.Join(dir, name)}
}

// Load reads the blob file from disk, replacing the in-memory copy. A
// missing file is treated as empty, not an error (first run).
func (b *blobStore) Load() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			b.buf = nil
			return nil
		}
		return errors.Wrap(err, errors.SharedAreaAttachFailed).WithMetadata("path", b.path)
	}
	b.buf = data
	return nil
}

// Append writes text to the end of the blob and returns its
// (offset, length) for storage in the owning fixed-size entry.
func (b *blobStore) Append(text string) (int64, int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	offset := int64(len(b.buf))
	b.buf = append(b.buf, []byte(text)...)
	b.buf = append(b.buf, 0)
	return offset, int64(len(text))
}

// Read returns the text at [offset, offset+length).
func (b *blobStore) Read(offset, length int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if offset < 0 || length < 0 || offset+length > int64(len(b.buf)) {
		return ""
	}
	return string(b.buf[offset : offset+length])
}

// Flush persists the blob to disk via the usual temp-then-rename
// sequence so a reader never observes a partially written blob.
func (b *blobStore) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, b.buf, 0644); err != nil {
		return errors.Wrap(err, errors.SharedAreaCreateFailed).WithMetadata("path", tmp)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return errors.Wrap(err, errors.SharedAreaCreateFailed).WithMetadata("path", b.path)
	}
	return nil
}
