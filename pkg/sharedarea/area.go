// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package sharedarea

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/stratastor/afd/pkg/errors"
)

// Area is a generation-aware, memory-resident mirror of one mapped
// file: FSA, FRA, MSA, JID, DNB, or the file-mask dictionary. T is the
// fixed-size on-disk entry type
// (binary.Write/Read compatible — array fields, not slices/strings).
//
// Unlike the C implementation, entries are not literally mmap'd; they
// are loaded into a slice under a RWMutex and flushed with the same
// write-temp-then-rename discipline the teacher's disk/state manager
// uses, which gives every reader the same crash-safety property
// (a reader never observes a half-written generation) without unsafe
// pointer arithmetic over a mapped region.
type Area[T any] struct {
	mu      sync.RWMutex
	dir     string
	base    string // e.g. constants.FsaStatFileBase
	idFile  string // e.g. constants.FsaIDFile
	version uint8
	header  Header
	entries []T
}

// New creates an Area bound to dir/base.<generation>, with its
// generation tracked in dir/idFile.
func New[T any](dir, base, idFile string, version uint8) *Area[T] {
	return &Area[T]{dir: dir, base: base, idFile: idFile, version: version}
}

// statPath returns the path of the generation-numbered mapped file.
func (a *Area[T]) statPath(generation uint32) string {
	return filepath.Join(a.dir, fmt.Sprintf("%s.%d", a.base, generation))
}

func (a *Area[T]) idPath() string {
	return filepath.Join(a.dir, a.idFile)
}

// currentGeneration reads the generation id file under an advisory
// shared lock (readers never block each other, only the structural
// writer in Swap).
func (a *Area[T]) currentGeneration() (uint32, error) {
	unlock, err := lockShared(a.idPath())
	if err != nil {
		return 0, errors.Wrap(err, errors.SharedAreaIDFileLockFailed).WithMetadata("path", a.idPath())
	}
	defer unlock()

	data, err := os.ReadFile(a.idPath())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, errors.SharedAreaAttachFailed).WithMetadata("path", a.idPath())
	}
	if len(data) < 4 {
		return 0, nil
	}
	return byteOrder.Uint32(data), nil
}

// Attach loads the current generation into memory. Safe to call
// repeatedly; it is how a process transparently re-attaches after a
// swap (spec.md §2, "readers transparently detach and re-attach").
func (a *Area[T]) Attach() error {
	gen, err := a.currentGeneration()
	if err != nil {
		return err
	}

	path := a.statPath(gen)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			a.mu.Lock()
			a.header = Header{Version: a.version}
			a.entries = nil
			a.mu.Unlock()
			return nil
		}
		return errors.Wrap(err, errors.SharedAreaAttachFailed).WithMetadata("path", path)
	}

	if len(data) < HeaderSize {
		return errors.New(errors.SharedAreaCorrupt, path)
	}
	hdr := unmarshalHeader(data[:HeaderSize])
	if hdr.Count == Stale {
		return errors.New(errors.SharedAreaStale, path)
	}
	if hdr.Version != a.version {
		return errors.Wrap(
			fmt.Errorf("on-disk version %d, runtime expects %d", hdr.Version, a.version),
			errors.SharedAreaVersionMismatch,
		).WithMetadata("path", path)
	}

	var zero T
	entrySize := binary.Size(zero)
	if entrySize <= 0 {
		return errors.New(errors.SharedAreaCorrupt, "entry type is not fixed-size")
	}
	want := HeaderSize + int(hdr.Count)*entrySize
	if len(data) != want {
		return errors.Wrap(
			fmt.Errorf("file size %d does not match header count %d * entry size %d", len(data), hdr.Count, entrySize),
			errors.SharedAreaCorrupt,
		).WithMetadata("path", path)
	}

	entries := make([]T, hdr.Count)
	r := bytes.NewReader(data[HeaderSize:])
	for i := range entries {
		if err := binary.Read(r, byteOrder, &entries[i]); err != nil {
			return errors.Wrap(err, errors.SharedAreaCorrupt).WithMetadata("path", path)
		}
	}

	a.mu.Lock()
	a.header = hdr
	a.entries = entries
	a.mu.Unlock()
	return nil
}

// Entries returns a snapshot copy of the currently attached generation.
func (a *Area[T]) Entries() []T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]T, len(a.entries))
	copy(out, a.entries)
	return out
}

// Header returns the currently attached header.
func (a *Area[T]) Header() Header {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.header
}

// Swap performs the rebuild-and-swap protocol (spec.md §2.2): write a
// new generation file under a temp name, rename it into place, then
// bump the id file under an exclusive lock so existing readers either
// see the whole old generation or the whole new one, never a partial
// copy (spec.md §8, invariant 5).
func (a *Area[T]) Swap(entries []T) (uint32, error) {
	a.mu.RLock()
	flags := a.header.Flags
	a.mu.RUnlock()
	return a.SwapWithFlags(entries, flags)
}

// SwapWithFlags is Swap plus an explicit header flags byte, letting a
// caller flip a feature-flag bit (spec.md §4.3 "Enable/disable flags")
// in the same generation that carries its entries, rather than losing
// it to the next writer's Swap.
func (a *Area[T]) SwapWithFlags(entries []T, flags uint8) (uint32, error) {
	unlock, err := lockExclusive(a.idPath())
	if err != nil {
		return 0, errors.Wrap(err, errors.SharedAreaIDFileLockFailed).WithMetadata("path", a.idPath())
	}
	defer unlock()

	// The exclusive flock above belongs to its own open file description,
	// so currentGeneration's shared flock would block against it; read
	// the id file directly while holding the exclusive lock.
	var gen uint32
	idData, err := os.ReadFile(a.idPath())
	if err != nil && !os.IsNotExist(err) {
		return 0, errors.Wrap(err, errors.SharedAreaAttachFailed).WithMetadata("path", a.idPath())
	}
	if len(idData) >= 4 {
		gen = byteOrder.Uint32(idData)
	}
	next := gen + 1

	hdr := Header{Count: int32(len(entries)), Version: a.version, Flags: flags}
	buf := hdr.marshal()

	var body bytes.Buffer
	body.Write(buf[:])
	for _, e := range entries {
		if err := binary.Write(&body, byteOrder, e); err != nil {
			return 0, errors.Wrap(err, errors.SharedAreaCreateFailed)
		}
	}

	path := a.statPath(next)
	tmp := path + ".tmp"
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return 0, errors.Wrap(err, errors.SharedAreaCreateFailed).WithMetadata("path", a.dir)
	}
	if err := os.WriteFile(tmp, body.Bytes(), 0644); err != nil {
		return 0, errors.Wrap(err, errors.SharedAreaCreateFailed).WithMetadata("path", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, errors.Wrap(err, errors.SharedAreaCreateFailed).WithMetadata("path", path)
	}

	idBuf := make([]byte, 4)
	byteOrder.PutUint32(idBuf, next)
	if err := os.WriteFile(a.idPath(), idBuf, 0644); err != nil {
		return 0, errors.Wrap(err, errors.SharedAreaIDFileLockFailed).WithMetadata("path", a.idPath())
	}

	// Best-effort cleanup of the superseded generation; a reader still
	// mid-Attach against it just sees ENOENT, which Attach treats as an
	// empty area rather than an error only on first-ever attach, so we
	// mark it STALE in place instead of deleting it outright.
	if gen != 0 {
		a.markStale(a.statPath(gen))
	}

	a.mu.Lock()
	a.header = hdr
	a.entries = append([]T(nil), entries...)
	a.mu.Unlock()

	return next, nil
}

func (a *Area[T]) markStale(path string) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	var buf [4]byte
	byteOrder.PutUint32(buf[:], uint32(Stale))
	_, _ = f.WriteAt(buf[:], 0)
}
