// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/stratastor/afd/internal/events"
)

// ScanConfig bundles everything one pass over a watched directory
// needs: the source path, staging destination, matching policy,
// staging flags, and the age-limit (spec.md §4.5 steps 1-4).
type ScanConfig struct {
	SourceDir   string
	PoolDir     string
	Policy      Policy
	LinkFlags   LinkFlag
	AgeLimit    int64 // seconds; 0 disables age-limit deletion
	DirID       uint32
	JobID       uint32
}

// ScanOutcome summarizes one Scan pass.
type ScanOutcome struct {
	Staged     []StageResult
	AgedOut    []string
	Errored    []string
}

// Scan walks cfg.SourceDir once, applying spec.md §4.5 steps 1-4:
// enumerate+dotfile rule, then for each file the age-limit check first
// (a file older than AgeLimit is deleted and never filtered or staged,
// whether or not it would have matched), then ignore/mask filtering,
// then staging.
func Scan(ctx context.Context, cfg ScanConfig, fanout *events.Fanout, dist *DistributionPool, hooks DiskFullHooks) (ScanOutcome, error) {
	now := time.Now()
	candidates, err := ScanDir(cfg.SourceDir, cfg.Policy)
	if err != nil {
		return ScanOutcome{}, err
	}

	var out ScanOutcome
	for _, f := range candidates {
		src := filepath.Join(cfg.SourceDir, f.Name)

		if AgeLimitExceeded(f, cfg.AgeLimit, now) {
			if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
				out.Errored = append(out.Errored, f.Name)
				continue
			}
			if fanout != nil {
				fanout.Delete(events.DeleteLogRecord{
					FileSize: f.Size,
					DirID:    cfg.DirID,
					JobID:    cfg.JobID,
					FileName: f.Name,
					Reason:   events.ReasonAgeInput,
					Trailer:  "dir_check%c>%d",
				})
			}
			if dist != nil {
				dist.Record(f.Name, cfg.JobID, DistAgeLimitDelete)
			}
			out.AgedOut = append(out.AgedOut, f.Name)
			continue
		}

		if !Eligible(f, cfg.Policy, now) {
			continue
		}

		var res StageResult
		stageErr := StageWithRetry(ctx, hooks, func() error {
			r, err := StageFile(src, cfg.PoolDir, cfg.LinkFlags)
			if err != nil {
				return err
			}
			res = r
			return nil
		})
		if stageErr != nil {
			out.Errored = append(out.Errored, f.Name)
			if dist != nil {
				dist.Record(f.Name, cfg.JobID, DistError)
			}
			continue
		}
		out.Staged = append(out.Staged, res)
		if dist != nil {
			dist.Record(f.Name, cfg.JobID, DistNormal)
		}
	}

	return out, nil
}
