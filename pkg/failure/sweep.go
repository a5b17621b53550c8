// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package failure

import (
	"os"
	"path/filepath"
	"time"

	"github.com/stratastor/logger"

	"github.com/stratastor/afd/internal/events"
	"github.com/stratastor/afd/pkg/errors"
)

// WatchedDir is one directory search_old_files sweeps: its path, how
// old a regular file must be before it is stale, and whether stale
// files are actually removed or only counted (amg/search_old_files.c's
// per-directory `old_file_time`/`remove_flag` pair).
type WatchedDir struct {
	Path        string
	DirID       uint32
	OldFileTime time.Duration
	RemoveFlag  bool
}

// SweepResult tallies one StuckFileSweep pass over a single
// WatchedDir.
type SweepResult struct {
	FileCounter int
	FileSize    int64
	JunkFiles   bool // stale files found but RemoveFlag is false
}

// StuckFileSweep walks dirs once, removing (or merely counting, per
// RemoveFlag) regular files older than OldFileTime, emitting a delete
// record through fanout for each removal (search_old_files.c: "If it
// discovers files older than OLD_FILE_TIME it will report this in the
// system log. When delete logging is enabled these files will be
// deleted.").
//
// Dotfiles and zero-length files are always eligible for removal
// regardless of RemoveFlag, matching the original's
// `(de[i].remove_flag == YES) || (name[0] == '.') || (size == 0)`
// condition.
func StuckFileSweep(log logger.Logger, fanout *events.Fanout, dirs []WatchedDir) map[string]SweepResult {
	now := time.Now()
	out := make(map[string]SweepResult, len(dirs))

	for _, d := range dirs {
		entries, err := os.ReadDir(d.Path)
		if err != nil {
			log.Warn("cannot access watched directory", "dir", d.Path, "error", err)
			continue
		}

		var res SweepResult
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			age := now.Sub(info.ModTime())
			if age <= d.OldFileTime {
				continue
			}

			eligible := d.RemoveFlag || entry.Name()[0] == '.' || info.Size() == 0
			full := filepath.Join(d.Path, entry.Name())
			if !eligible {
				res.FileCounter++
				res.FileSize += info.Size()
				res.JunkFiles = true
				continue
			}

			if err := os.Remove(full); err != nil {
				log.Warn("failed to remove stale file", "file", full, "error", err)
				continue
			}
			res.FileCounter++
			res.FileSize += info.Size()
			if !d.RemoveFlag {
				res.JunkFiles = true
			}
			if fanout != nil {
				fanout.Delete(events.DeleteLogRecord{
					FileSize: info.Size(),
					DirID:    d.DirID,
					FileName: entry.Name(),
					Reason:   events.ReasonAgeInput,
					Trailer:  "dir_check() >" + age.String(),
				})
			}
		}
		out[d.Path] = res
	}
	return out
}

// RemoveTimeDir removes a time-job's date-stamped working directory
// (base/<timestamp as UTC YYYYMMDDhhmmss>) once its files have all been distributed
// (amg/remove_time_dir.c). It refuses to remove anything that isn't
// empty, since a non-empty time directory means files are still
// in-flight.
func RemoveTimeDir(base string, timestamp int64) error {
	dir := filepath.Join(base, formatTimestamp(timestamp))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.New(errors.FailureTimeDirRemoveFailed, err.Error()).
			WithMetadata("dir", dir)
	}
	if len(entries) != 0 {
		return errors.New(errors.FailureTimeDirRemoveFailed, "directory not empty").
			WithMetadata("dir", dir)
	}
	if err := os.Remove(dir); err != nil {
		return errors.New(errors.FailureTimeDirRemoveFailed, err.Error()).
			WithMetadata("dir", dir)
	}
	return nil
}

func formatTimestamp(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("20060102150405")
}
