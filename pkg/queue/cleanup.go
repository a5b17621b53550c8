// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"os"
	"path/filepath"

	"github.com/stratastor/afd/internal/events"
	"github.com/stratastor/afd/pkg/errors"
)

// FSACounters is the narrow slice of fsa.Table this package needs,
// kept as an interface so queue does not import pkg/fsa and create a
// cycle — the cross-reference stays "(kind, id) with a lookup"
// (spec.md §9), not a direct pointer between areas.
type FSACounters interface {
	AdjustCounters(alias string, deltaFiles int64, deltaBytes int64) error
}

// RemoveJobFiles recursively removes every file under a job's staging
// subdirectory, writing one DeleteLogRecord per file with reason, then
// removes the directory itself, and decrements the owning host's FSA
// counters (spec.md §4.6 "remove_job_files(dir, fsa_pos, jid, reason)").
func RemoveJobFiles(fanout *events.Fanout, fsa FSACounters, hostAlias string, jobDir string, dirID, jobID uint32, reason events.DeleteReason) error {
	entries, err := os.ReadDir(jobDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, errors.QueueJobCleanupFailed).WithMetadata("path", jobDir)
	}

	var totalFiles, totalBytes int64
	for _, ent := range entries {
		full := filepath.Join(jobDir, ent.Name())
		if ent.IsDir() {
			if err := RemoveJobFiles(fanout, fsa, hostAlias, full, dirID, jobID, reason); err != nil {
				return err
			}
			continue
		}
		info, statErr := ent.Info()
		var size int64
		if statErr == nil {
			size = info.Size()
		}
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, errors.QueueJobCleanupFailed).WithMetadata("path", full)
		}
		if fanout != nil {
			fanout.Delete(events.DeleteLogRecord{
				FileSize: size,
				DirID:    dirID,
				JobID:    jobID,
				FileName: ent.Name(),
				Reason:   reason,
			})
		}
		totalFiles++
		totalBytes += size
	}

	if err := os.Remove(jobDir); err != nil && !os.IsNotExist(err) {
		// Residual entries (e.g. created concurrently): fall through to a
		// full recursive remove rather than leaving an orphaned directory.
		if err := os.RemoveAll(jobDir); err != nil {
			return errors.Wrap(err, errors.QueueJobCleanupFailed).WithMetadata("path", jobDir)
		}
	}

	if fsa != nil && totalFiles > 0 {
		return fsa.AdjustCounters(hostAlias, -totalFiles, -totalBytes)
	}
	return nil
}
