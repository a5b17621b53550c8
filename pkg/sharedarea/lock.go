// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package sharedarea

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockShared and lockExclusive implement spec.md §5's "lock_file(ID_FILE)
// enforces at most one structural writer" using real whole-file advisory
// locks (flock), grounded in how rclone's local backend reaches for
// golang.org/x/sys/unix for low-level file operations the standard
// library doesn't expose (see backend/local/fadvise_unix.go).
func lockFile(path string, how int) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), how); err != nil {
		f.Close()
		return nil, err
	}
	return func() {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}

func lockShared(path string) (func(), error) {
	return lockFile(path, unix.LOCK_SH)
}

func lockExclusive(path string) (func(), error) {
	return lockFile(path, unix.LOCK_EX)
}

// RegionLock is an advisory fcntl byte-range lock over a single entry
// (host slot, directory slot) inside a mapped file, letting a worker
// claim one FSA job_status slot without blocking the whole table
// (spec.md §5, "advisory region locks").
type RegionLock struct {
	file *os.File
	lock unix.Flock_t
}

// LockRegion locks [offset, offset+length) of path. exclusive selects
// F_WRLCK vs F_RDLCK.
func LockRegion(path string, offset, length int64, exclusive bool) (*RegionLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	lockType := int16(unix.F_RDLCK)
	if exclusive {
		lockType = unix.F_WRLCK
	}
	flk := unix.Flock_t{
		Type:   lockType,
		Whence: int16(os.SEEK_SET),
		Start:  offset,
		Len:    length,
	}

	if err := unix.FcntlFlock(f.Fd(), unix.F_SETLKW, &flk); err != nil {
		f.Close()
		return nil, err
	}

	return &RegionLock{file: f, lock: flk}, nil
}

// Unlock releases the region lock.
func (r *RegionLock) Unlock() error {
	defer r.file.Close()
	unlk := r.lock
	unlk.Type = unix.F_UNLCK
	return unix.FcntlFlock(r.file.Fd(), unix.F_SETLK, &unlk)
}
