// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package scanner implements C5: the AMG-side input directory walk,
// file-mask filtering, pool-directory staging (link or copy), and
// unique pool subdirectory allocation (spec.md §4.5).
package scanner

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	afderrors "github.com/stratastor/afd/pkg/errors"
)

// LinkFlag bits controlling staging strategy (spec.md §4.5).
type LinkFlag uint8

const (
	FlagInSameFilesystem LinkFlag = 1 << iota
	FlagDoNotLinkFiles
	FlagRenameOneJobOnly
)

// StageResult reports what StageFile actually did, for counters and
// log fanout (spec.md §8, S4 "returned files_linked == 1,
// file_size_linked == 8192").
type StageResult struct {
	Method      string // "link", "copy", or "rename"
	Destination string
	Size        int64
}

// StageFile places src into destDir under its original base name,
// following spec.md §4.5 step 3: hard link when same filesystem and
// IN_SAME_FILESYSTEM is set (retry once on EEXIST by unlinking),
// otherwise block-copy preserving mtime/atime, or rename in place
// under RENAME_ONE_JOB_ONLY.
func StageFile(src, destDir string, flags LinkFlag) (StageResult, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return StageResult{}, afderrors.Wrap(err, afderrors.ScannerStageFailed).WithMetadata("path", destDir)
	}
	dest := filepath.Join(destDir, filepath.Base(src))

	if flags&FlagRenameOneJobOnly != 0 {
		if err := os.Rename(src, dest); err != nil {
			return StageResult{}, afderrors.Wrap(err, afderrors.ScannerStageFailed).WithMetadata("path", dest)
		}
		info, _ := os.Stat(dest)
		var size int64
		if info != nil {
			size = info.Size()
		}
		return StageResult{Method: "rename", Destination: dest, Size: size}, nil
	}

	if flags&FlagInSameFilesystem != 0 && flags&FlagDoNotLinkFiles == 0 {
		res, err := hardLink(src, dest)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, os.ErrExist) {
			// EXDEV (cross-device) falls through to copy, matching
			// spec.md's "If cross-filesystem (EXDEV) ... copy".
			var linkErr *os.LinkError
			if !errorsAsLinkError(err, &linkErr) {
				return StageResult{}, afderrors.Wrap(err, afderrors.ScannerStageFailed).WithMetadata("path", dest)
			}
		}
	}

	return copyFile(src, dest)
}

func errorsAsLinkError(err error, target **os.LinkError) bool {
	return errors.As(err, target)
}

func hardLink(src, dest string) (StageResult, error) {
	if err := os.Link(src, dest); err != nil {
		if errors.Is(err, os.ErrExist) {
			if rmErr := os.Remove(dest); rmErr != nil {
				return StageResult{}, rmErr
			}
			if err := os.Link(src, dest); err != nil {
				return StageResult{}, err
			}
		} else {
			return StageResult{}, err
		}
	}
	info, err := os.Stat(dest)
	if err != nil {
		return StageResult{}, err
	}
	return StageResult{Method: "link", Destination: dest, Size: info.Size()}, nil
}

// copyFile performs the block-I/O copy path (spec.md §4.5: "copy using
// block I/O (splice where available, else read/write) preserving
// mtime/atime"). Go's io.Copy already uses the platform's
// copy_file_range/sendfile fast path on Linux when both ends are
// regular files, the same "splice where available" optimization.
func copyFile(src, dest string) (StageResult, error) {
	in, err := os.Open(src)
	if err != nil {
		return StageResult{}, afderrors.Wrap(err, afderrors.ScannerStageFailed).WithMetadata("path", src)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return StageResult{}, afderrors.Wrap(err, afderrors.ScannerStageFailed)
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return StageResult{}, afderrors.Wrap(err, afderrors.ScannerStageFailed).WithMetadata("path", dest)
	}

	n, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil {
		return StageResult{}, afderrors.Wrap(copyErr, afderrors.ScannerStageFailed)
	}
	if closeErr != nil {
		return StageResult{}, afderrors.Wrap(closeErr, afderrors.ScannerStageFailed)
	}

	mtime := info.ModTime()
	if err := os.Chtimes(dest, mtime, mtime); err != nil {
		return StageResult{}, afderrors.Wrap(err, afderrors.ScannerStageFailed)
	}

	return StageResult{Method: "copy", Destination: dest, Size: n}, nil
}

// CreateName generates a per-job pool subdirectory name when local
// options are present (spec.md §4.5 step 5: "create_name(dest,
// priority, ctime, job_id, &split_counter, &unique, out)"). The unique
// component is a UUID, the Go-native replacement for the original's
// pid/counter-derived uniqueness, grounded on the teacher's UUID7()
// id minting used throughout its own job/event ids.
func CreateName(dest string, priority byte, ctime time.Time, jobID uint32, split uint32) string {
	unique := uuid.NewString()[:8]
	name := string(priority) + "_" + itoa(int64(jobID)) + "_" + itoa(ctime.Unix()) + "_" + unique + "_" + itoa(int64(split))
	return filepath.Join(dest, name)
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// GetDirNumber allocates an integer sub-directory under dest/<jobID>/
// respecting LINK_MAX (spec.md §4.5 step 5: "get_dir_number(dest,
// job_id, &left) allocates an integer sub-directory ... respecting
// pathconf(_PC_LINK_MAX)"). It scans existing numeric subdirectories
// under jobDir and returns one with fewer than linkMax entries (in map
// iteration order, so not necessarily the lowest-numbered), creating a
// new one if every existing directory is full.
func GetDirNumber(jobDir string, linkMax int) (sub int, left int, err error) {
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return 0, 0, afderrors.Wrap(err, afderrors.ScannerStageFailed).WithMetadata("path", jobDir)
	}
	entries, err := os.ReadDir(jobDir)
	if err != nil {
		return 0, 0, afderrors.Wrap(err, afderrors.ScannerStageFailed)
	}

	counts := make(map[int]int)
	maxN := -1
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, perr := parseInt(e.Name())
		if perr != nil {
			continue
		}
		sub, serr := os.ReadDir(filepath.Join(jobDir, e.Name()))
		if serr != nil {
			continue
		}
		counts[n] = len(sub)
		if n > maxN {
			maxN = n
		}
	}

	for n, c := range counts {
		if c < linkMax {
			return n, linkMax - c, nil
		}
	}

	next := maxN + 1
	if err := os.MkdirAll(filepath.Join(jobDir, itoa(int64(next))), 0755); err != nil {
		return 0, 0, afderrors.Wrap(err, afderrors.ScannerStageFailed)
	}
	return next, linkMax, nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, afderrors.New(afderrors.ScannerStageFailed, "empty directory name")
	}
	neg := false
	i := 0
	if s[0] == '-' {
		neg = true
		i = 1
	}
	if i >= len(s) {
		return 0, afderrors.New(afderrors.ScannerStageFailed, s)
	}
	n := 0
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, afderrors.New(afderrors.ScannerStageFailed, s)
		}
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}
