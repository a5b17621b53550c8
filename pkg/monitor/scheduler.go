// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/stratastor/logger"

	"github.com/stratastor/afd/pkg/errors"
)

// RemoteAFD is one entry of the monitor's config list (spec.md §4.7
// "MON_CONFIG": alias, address, and its poll interval).
type RemoteAFD struct {
	Alias    string
	Addr     string
	Interval time.Duration
}

// Scheduler drives a periodic Client.Poll against every configured
// RemoteAFD and folds the result into the MSA, one recurring job per
// remote, built on github.com/go-co-op/gocron/v2.
type Scheduler struct {
	log     logger.Logger
	table   *Table
	timeout time.Duration
	sched   gocron.Scheduler
}

// NewScheduler creates a Scheduler backed by table, logging through
// log, with each remote poll bounded by timeout.
func NewScheduler(log logger.Logger, table *Table, timeout time.Duration) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.New(errors.MonitorConnectFailed, err.Error()).
			WithMetadata("operation", "create_scheduler")
	}
	return &Scheduler{log: log, table: table, timeout: timeout, sched: sched}, nil
}

// AddRemote registers a recurring poll job for r, created immediately
// (spec.md §4.7: "each AFD in MON_CONFIG is polled at its own
// interval, starting right away rather than waiting one interval").
func (s *Scheduler) AddRemote(r RemoteAFD) error {
	if _, err := s.table.Register(r.Alias, 1); err != nil {
		return err
	}
	_, err := s.sched.NewJob(
		gocron.DurationJob(r.Interval),
		gocron.NewTask(func() { s.pollOnce(r) }),
		gocron.WithName(r.Alias),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return errors.New(errors.MonitorConnectFailed, err.Error()).
			WithMetadata("alias", r.Alias)
	}
	return nil
}

func (s *Scheduler) pollOnce(r RemoteAFD) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	client := NewClient(r.Addr, s.timeout)
	res, err := client.Poll(ctx)
	if err != nil {
		s.log.Warn("remote afd poll failed", "alias", r.Alias, "addr", r.Addr, "error", err)
		if _, uerr := s.table.Update(r.Alias, func(e *MSAEntry) {
			e.ConnectStatus = 0
			PushSysLog(e, 'E')
		}); uerr != nil {
			s.log.Error("failed to record poll failure in MSA", "alias", r.Alias, "error", uerr)
		}
		return
	}

	if _, err := s.table.Update(r.Alias, func(e *MSAEntry) {
		e.ConnectStatus = 1
		e.FilesCount = res.FilesCount
		e.FilesSize = res.FilesSize
		e.TransferRate = res.TransferRate
		e.FilesReceived = res.FilesReceived
		e.JobsQueued = res.JobsQueued
		e.ActiveTransfers = res.ActiveTransfers
		e.ErrorCounter = res.ErrorCounter
		e.AMGLed = res.AMGLed
		e.FDLed = res.FDLed
		e.ArchiveWatchLed = res.ArchiveWatchLed
		PushSysLog(e, 'I')
	}); err != nil {
		s.log.Error("failed to record poll result in MSA", "alias", r.Alias, "error", err)
	}
}

// Start begins running every registered poll job.
func (s *Scheduler) Start() {
	s.sched.Start()
}

// Stop shuts the scheduler down, waiting for in-flight polls to
// finish.
func (s *Scheduler) Stop() error {
	if err := s.sched.Shutdown(); err != nil {
		return errors.New(errors.MonitorShutdownTimeout, err.Error())
	}
	return nil
}
