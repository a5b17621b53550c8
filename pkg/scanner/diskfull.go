// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"context"
	"errors"
	"syscall"
	"time"
)

// DiskFullRescanTime is how long StageWithRetry sleeps between ENOSPC
// retries (spec.md §4.5 step 6: "On ENOSPC during staging, sleep
// DISK_FULL_RESCAN_TIME and retry indefinitely").
const DiskFullRescanTime = 30 * time.Second

// OnDiskFull / OnDiskFullResolved let the caller emit the exact S5 log
// lines ("DISK FULL!!!" once at entry, "Continuing after disk was
// full." once at resume) without this package importing the log
// fanout directly.
type DiskFullHooks struct {
	OnDiskFull         func()
	OnDiskFullResolved func()
}

// StageWithRetry retries op indefinitely on ENOSPC, sleeping
// DiskFullRescanTime between attempts (spec.md §4.5 step 6, §8 S5).
// ctx cancellation stops the retry loop early.
func StageWithRetry(ctx context.Context, hooks DiskFullHooks, op func() error) error {
	logged := false
	for {
		err := op()
		if err == nil {
			if logged && hooks.OnDiskFullResolved != nil {
				hooks.OnDiskFullResolved()
			}
			return nil
		}
		if !errors.Is(err, syscall.ENOSPC) {
			return err
		}
		if !logged {
			if hooks.OnDiskFull != nil {
				hooks.OnDiskFull()
			}
			logged = true
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(DiskFullRescanTime):
		}
	}
}
