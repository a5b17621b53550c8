// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor is the in-process analogue of init-afd's C11
// startup/shutdown choreography (spec.md §4.11): it attaches the
// shared-state tables C3/C4/C6/C7 publish, runs the periodic
// consistency sweeps and CML republish spec.md assigns to the daemon
// rather than to any one request, and exposes the result as a
// pkg/server.StatusProvider. The original spawns AMG/FD/afd_mon as
// separate address spaces coordinated over fifos (C8); this module
// plays the same role inside a single Go binary, one goroutine per
// daemon responsibility instead of one process per daemon.
//
// ConfigureFromDisk additionally bootstraps C5 (scanner), C6 (queue
// dispatch), C7 (monitor polling), C9 (aldad/stuck-file/zombie
// bookkeeping) and C10 (log fanout) off AFD_CONFIG/DIR_CONFIG, and Run
// drives all of it: a goroutine per responsibility, same as the
// sweep loop, each ticking on its own configured interval.
package supervisor

import (
	"bufio"
	"context"
	goerrors "errors"
	"fmt"
	"hash/crc32"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/stratastor/logger"

	"github.com/stratastor/afd/internal/constants"
	"github.com/stratastor/afd/internal/events"
	"github.com/stratastor/afd/pkg/afdconfig"
	"github.com/stratastor/afd/pkg/dirconfig"
	"github.com/stratastor/afd/pkg/errors"
	"github.com/stratastor/afd/pkg/failure"
	"github.com/stratastor/afd/pkg/fra"
	"github.com/stratastor/afd/pkg/fsa"
	"github.com/stratastor/afd/pkg/monitor"
	"github.com/stratastor/afd/pkg/queue"
	"github.com/stratastor/afd/pkg/registry"
	"github.com/stratastor/afd/pkg/scanner"
	"github.com/stratastor/afd/pkg/statistics"
)

// TransferExecutor performs the one part of a transfer spec.md keeps
// out of this repo's scope: "the wire-protocol clients themselves
// (FTP/SFTP/HTTP/SMTP state machines) — the core provides them a job
// descriptor and consumes a result code" (spec.md §1). dispatchOnce is
// that boundary: it claims an FSA slot, hands Execute the QueueEntry,
// and consumes the returned error as the result code. NoopExecutor, the
// default, always succeeds immediately — a stand-in for the FTP/SFTP/
// HTTP/SMTP client this repo doesn't ship, so the dispatch loop itself
// (slot claim, retry-interval gating, error bookkeeping, queue removal)
// still runs and is exercised end-to-end.
type TransferExecutor interface {
	Execute(ctx context.Context, entry queue.QueueEntry) error
}

// NoopExecutor always reports success. See TransferExecutor.
type NoopExecutor struct{}

func (NoopExecutor) Execute(ctx context.Context, entry queue.QueueEntry) error { return nil }

// destJob is one DIR_CONFIG destination within a directory stanza:
// which host/job it delivers to, at what priority.
type destJob struct {
	HostAlias string
	JobID     uint32
	Priority  byte
}

// dirJob bundles one DIR_CONFIG directory's scan configuration with
// the destinations its staged files fan out to.
type dirJob struct {
	Alias        string
	Cfg          scanner.ScanConfig
	Destinations []destJob
}

// Intervals bundles the tick cadences ConfigureFromDisk's loops run
// at, sourced from config.Config.Intervals (spec.md §6's
// STAT_INTERVAL and friends).
type Intervals struct {
	Scan       time.Duration // AMG input-directory rescan
	Dispatch   time.Duration // FD queue dispatch tick
	Failure    time.Duration // aldad reconcile + stuck-file + zombie sweep
	MonitorRPC time.Duration // remote-afd poll RPC timeout
}

// DefaultIntervals returns the fallback cadence used whenever
// config.Config.Intervals fails to parse.
func DefaultIntervals() Intervals {
	return Intervals{
		Scan:       10 * time.Second,
		Dispatch:   2 * time.Second,
		Failure:    60 * time.Second,
		MonitorRPC: 10 * time.Second,
	}
}

// Supervisor owns the live FSA/FRA/queue/MSA tables for one afd
// instance and answers pkg/server's StatusProvider from their
// snapshots. Once ConfigureFromDisk has run, it also owns the
// registries, log fanout, and schedulers that back the AMG scan
// loop, the FD dispatch loop, and C9's failure bookkeeping.
type Supervisor struct {
	FifoDir string
	EtcDir  string
	LogDir  string

	FSA     *fsa.Table
	FRA     *fra.Table
	Queue   *queue.Queue
	Monitor *monitor.Table

	DNB      *registry.DNBRegistry
	JID      *registry.JIDRegistry
	FileMask *registry.FileMaskRegistry

	Fanout *events.Fanout
	Dist   *scanner.DistributionPool

	MonitorScheduler *monitor.Scheduler
	StatsScheduler   *statistics.Scheduler
	Aldad            *failure.Aldad
	Executor         TransferExecutor

	log           logger.Logger
	sweepInterval time.Duration
	intervals     Intervals
	configured    bool

	mu          sync.Mutex
	dirJobs     []dirJob
	watchedDirs []failure.WatchedDir
	hostAliases []string
	aldaDefs    []string
	addedRemote map[string]bool

	sizeMu       sync.Mutex
	pendingSizes map[string]int64
}

// New attaches (or, on first run, implicitly creates via sharedarea's
// Attach-creates-empty semantics) the FSA/FRA/MSA tables under
// fifoDir and binds an empty in-memory output queue. Callers that also
// run AMG-side scanning or FD-side dispatch share this Supervisor's
// FSA/FRA/Queue rather than opening their own tables, so the sweep
// loop and the request handlers observe the same generation. Call
// ConfigureFromDisk afterwards to wire C5/C6/C7/C9/C10 off
// AFD_CONFIG/DIR_CONFIG.
func New(fifoDir string) (*Supervisor, error) {
	s := &Supervisor{
		FifoDir:       fifoDir,
		FSA:           fsa.NewTable(fifoDir),
		FRA:           fra.NewTable(fifoDir),
		Queue:         queue.NewQueue(),
		Monitor:       monitor.NewTable(fifoDir),
		Executor:      NoopExecutor{},
		sweepInterval: 5 * time.Second,
		intervals:     DefaultIntervals(),
		addedRemote:   make(map[string]bool),
		pendingSizes:  make(map[string]int64),
	}

	if err := s.FSA.Load(); err != nil {
		return nil, err
	}
	if err := s.FRA.Load(); err != nil {
		return nil, err
	}
	if err := s.Monitor.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetSweepInterval overrides the default consistency-sweep / CML
// republish cadence, e.g. for a faster interval in tests.
func (s *Supervisor) SetSweepInterval(d time.Duration) {
	s.sweepInterval = d
}

// isConfigMissing reports whether err is the "file not found" flavor
// of ConfigNotFound that afdconfig.ParseFile/dirconfig.ParseFile
// return before an operator has provisioned etc/AFD_CONFIG or
// etc/DIR_CONFIG — tolerated at startup so a fresh install still comes
// up, with nothing to scan/dispatch until config is dropped in place
// and a reload (SIGHUP) picks it up.
func isConfigMissing(err error) bool {
	return goerrors.Is(err, errors.New(errors.ConfigNotFound, ""))
}

// ConfigureFromDisk (re)reads etc/AFD_CONFIG and etc/DIR_CONFIG,
// rebuilds the FSA host list and FRA directory list the way a
// DIR_CONFIG change does (spec.md §4.3/§4.4 "Order change"), and
// (re)builds the scan/dispatch/failure bookkeeping the disk-derived
// topology drives. Safe to call again — e.g. from a SIGHUP reload
// hook via pkg/lifecycle.RegisterReloadHook — in which case hosts and
// directories that still exist carry their live counters forward
// (fsa.Table.Reorder / fra.Table.Rebuild already guarantee that).
func (s *Supervisor) ConfigureFromDisk(etcDir, logDir string, log logger.Logger, intervals Intervals) error {
	afdCfg, err := afdconfig.ParseFile(filepath.Join(etcDir, constants.AfdConfigFile))
	if err != nil {
		if !isConfigMissing(err) {
			return err
		}
		afdCfg, err = afdconfig.Parse(bufio.NewScanner(strings.NewReader("")))
		if err != nil {
			return err
		}
	}

	dirEntries, err := dirconfig.ParseFile(filepath.Join(etcDir, constants.DirConfigFile))
	if err != nil {
		if !isConfigMissing(err) {
			return err
		}
		dirEntries = nil
	}

	s.log = log
	s.EtcDir = etcDir
	s.LogDir = logDir
	s.intervals = intervals

	if s.Fanout == nil {
		s.Fanout = events.NewFanout(log)
		for kind, name := range fanoutLogFiles {
			f, oerr := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if oerr != nil {
				log.Warn("failed to open log fanout target", "kind", kind.String(), "path", name, "error", oerr)
				continue
			}
			s.Fanout.Register(kind, f)
		}
	}
	if s.Dist == nil {
		s.Dist = scanner.NewDistributionPool()
	}
	if s.DNB == nil {
		s.DNB = registry.NewDNBRegistry(s.FifoDir)
		if err := s.DNB.Load(); err != nil {
			return err
		}
	}
	if s.JID == nil {
		s.JID = registry.NewJIDRegistry(s.FifoDir)
		if err := s.JID.Load(); err != nil {
			return err
		}
	}
	if s.FileMask == nil {
		s.FileMask = registry.NewFileMaskRegistry(s.FifoDir)
		if err := s.FileMask.Load(); err != nil {
			return err
		}
	}

	topo, err := s.buildTopology(afdCfg, dirEntries)
	if err != nil {
		return err
	}

	if _, err := s.FSA.Reorder(topo.hostOrder, topo.hostDefaults); err != nil {
		return err
	}
	fsaPos := make(map[string]int32, len(topo.hostOrder))
	for i, alias := range topo.hostOrder {
		fsaPos[alias] = int32(i)
	}
	for alias, spec := range topo.dirSpecs {
		if pos, ok := fsaPos[topo.dirPrimaryHost[alias]]; ok {
			spec.FSAPos = pos
			topo.dirSpecs[alias] = spec
		}
	}
	if _, err := s.FRA.Rebuild(topo.dirOrder, topo.dirSpecs); err != nil {
		return err
	}

	for alias, d := range topo.hostDefaults {
		s.Queue.SetRetryInterval(alias, time.Duration(d.RetryInterval)*time.Second)
	}

	if s.Aldad == nil {
		s.Aldad = failure.NewAldad(log, "alda")
	}
	if s.MonitorScheduler == nil {
		sched, err := monitor.NewScheduler(log, s.Monitor, intervals.MonitorRPC)
		if err != nil {
			return err
		}
		s.MonitorScheduler = sched
	}
	if s.StatsScheduler == nil {
		sched, err := statistics.NewScheduler(s.FSA, s.FRA)
		if err != nil {
			return err
		}
		s.StatsScheduler = sched
	}

	s.mu.Lock()
	s.dirJobs = topo.dirJobs
	s.watchedDirs = topo.watchedDirs
	s.hostAliases = topo.hostOrder
	s.aldaDefs = afdCfg.All(afdconfig.KeyAldaDaemon)
	remotes := parseRemoteAFDs(afdCfg)
	s.mu.Unlock()

	for _, r := range remotes {
		if s.addedRemote[r.Alias] {
			continue
		}
		if err := s.MonitorScheduler.AddRemote(r); err != nil {
			log.Warn("failed to register remote afd poll", "alias", r.Alias, "error", err)
			continue
		}
		s.addedRemote[r.Alias] = true
	}

	s.configured = true
	return nil
}

// fanoutLogFiles names the on-disk target each log.Kind's fanout
// writer is lazily opened against under p_work_dir/log (spec.md
// §4.10's seven rotating logs; this repo appends to one growing file
// per kind rather than implementing rotation itself, a Non-goal).
var fanoutLogFiles = map[events.Kind]string{
	events.KindSystem:     "system_log",
	events.KindTransfer:   "transfer_log",
	events.KindReceive:    "receive_log",
	events.KindDelete:     "delete_log",
	events.KindProduction: "production_log",
	events.KindInput:      "input_log",
	events.KindOutput:     "output_log",
}

// Run drives the daemon's periodic bookkeeping until ctx is
// cancelled: spec.md §4.3's check_fsa_entries consistency sweep,
// §4.4's FRA sweep, and §4.2's CML republish always run; once
// ConfigureFromDisk has populated a disk-derived topology, the AMG
// scan loop (C5), the FD dispatch loop (C6), and C9's aldad/stuck-
// file/zombie sweep run alongside it, plus C7's remote-poll and
// statistics sampling schedulers.
func (s *Supervisor) Run(ctx context.Context) {
	type loop struct {
		interval time.Duration
		fn       func()
	}
	loops := []loop{{s.sweepInterval, s.sweepOnce}}
	if s.configured {
		loops = append(loops,
			loop{s.intervals.Scan, s.scanOnce},
			loop{s.intervals.Dispatch, s.dispatchOnce},
			loop{s.intervals.Failure, s.failureOnce},
		)
		s.MonitorScheduler.Start()
		defer func() {
			if err := s.MonitorScheduler.Stop(); err != nil {
				s.log.Warn("monitor scheduler shutdown", "error", err)
			}
		}()
		if err := s.StatsScheduler.Start(); err != nil {
			s.log.Warn("statistics scheduler failed to start", "error", err)
		} else {
			defer func() {
				if err := s.StatsScheduler.Stop(); err != nil {
					s.log.Warn("statistics scheduler shutdown", "error", err)
				}
			}()
		}
	}

	var wg sync.WaitGroup
	for _, l := range loops {
		l := l
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.fn()
			ticker := time.NewTicker(l.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					l.fn()
				}
			}
		}()
	}
	wg.Wait()
}

func (s *Supervisor) sweepOnce() {
	// Errors from a sweep tick are intentionally swallowed here: a
	// transient sharedarea.SharedAreaStale (another writer mid-swap)
	// or a lock contention resolves itself by the next tick, the same
	// way the original's check_fsa_entries is a best-effort pass, not
	// a fatal one (spec.md §7, "Consistency drift ... self-correct ...
	// log DEBUG").
	_, _ = s.FSA.CheckEntries()
	_, _ = s.FRA.CheckEntries()

	hosts := s.FSA.Snapshot()
	slots := make([][]uint32, len(hosts))
	for i, h := range hosts {
		ids := make([]uint32, len(h.JobStatus))
		for j, js := range h.JobStatus {
			ids[j] = js.JobID
		}
		slots[i] = ids
	}
	_ = registry.WriteCML(s.FifoDir, registry.LiveJobIDsFromSlots(slots))
}

func pendingKey(alias string, jobID uint32, enqueuedAt time.Time) string {
	return fmt.Sprintf("%s:%d:%d", alias, jobID, enqueuedAt.UnixNano())
}

// scanOnce runs one AMG-side pass over every DIR_CONFIG directory
// (spec.md §4.5): stage eligible files, fan each staged file out to
// every destination host as a queued message, and fold the resulting
// counts into FRA (files_in_dir/files_queued/bytes_in_queue) and FSA
// (total_file_counter/total_file_size per destination host).
func (s *Supervisor) scanOnce() {
	s.mu.Lock()
	jobs := append([]dirJob(nil), s.dirJobs...)
	s.mu.Unlock()

	for _, job := range jobs {
		hooks := scanner.DiskFullHooks{
			OnDiskFull:         func() { s.Fanout.System('E', "DISK FULL!!!") },
			OnDiskFullResolved: func() { s.Fanout.System('I', "Continuing after disk was full.") },
		}
		outcome, err := scanner.Scan(context.Background(), job.Cfg, s.Fanout, s.Dist, hooks)
		if err != nil {
			s.log.Warn("directory scan failed", "dir", job.Alias, "error", err)
			continue
		}

		var bytesStaged int64
		for _, staged := range outcome.Staged {
			bytesStaged += staged.Size
			for _, dest := range job.Destinations {
				if err := s.FSA.AdjustCounters(dest.HostAlias, 1, staged.Size); err != nil {
					s.log.Warn("failed to record staged file against fsa", "host", dest.HostAlias, "error", err)
				}
				entry := queue.QueueEntry{
					Kind:       queue.KindPush,
					HostAlias:  dest.HostAlias,
					JobID:      dest.JobID,
					DirAlias:   job.Alias,
					Priority:   dest.Priority,
					EnqueuedAt: time.Now(),
				}
				s.sizeMu.Lock()
				s.pendingSizes[pendingKey(entry.HostAlias, entry.JobID, entry.EnqueuedAt)] = staged.Size
				s.sizeMu.Unlock()
				s.Queue.Enqueue(entry)
			}
		}

		if len(outcome.Staged) == 0 && len(outcome.AgedOut) == 0 && len(outcome.Errored) == 0 {
			continue
		}

		var filesQueued int32
		var bytesQueued int64
		for _, e := range s.Queue.Snapshot() {
			if e.DirAlias != job.Alias {
				continue
			}
			filesQueued++
			s.sizeMu.Lock()
			bytesQueued += s.pendingSizes[pendingKey(e.HostAlias, e.JobID, e.EnqueuedAt)]
			s.sizeMu.Unlock()
		}
		if err := s.FRA.SetQueueCounters(job.Alias, filesQueued, bytesQueued); err != nil {
			s.log.Warn("failed to update fra queue counters", "dir", job.Alias, "error", err)
		}
		filesSeen := int32(len(outcome.Staged) + len(outcome.AgedOut) + len(outcome.Errored))
		if err := s.FRA.RecordScan(job.Alias, filesSeen, bytesStaged, int64(len(outcome.Staged)), bytesStaged); err != nil {
			s.log.Warn("failed to record scan against fra", "dir", job.Alias, "error", err)
		}
	}
}

// dispatchOnce is the FD-side half of C6/§4.6's scheduling loop: for
// every host with a free transfer slot, pull its next eligible queue
// entry, claim the slot, hand the entry to the configured
// TransferExecutor, and consume the result the way spec.md §1 assigns
// to the core ("provides them a job descriptor and consumes a result
// code") — success clears the slot and the queue entry, credits
// FSA's counters back down and clears the host's error state; failure records the error in FSA's
// history and leaves the entry queued for the next retry-interval
// window.
func (s *Supervisor) dispatchOnce() {
	s.mu.Lock()
	hosts := append([]string(nil), s.hostAliases...)
	s.mu.Unlock()

	now := time.Now()
	for _, alias := range hosts {
		entry, ok := s.Queue.Next(alias, now)
		if !ok {
			continue
		}
		slot, err := s.FSA.ClaimSlot(alias, int32(os.Getpid()), entry.JobID)
		if err != nil {
			continue
		}
		s.Queue.MarkAttempt(alias, now)

		execErr := s.Executor.Execute(context.Background(), entry)

		s.sizeMu.Lock()
		key := pendingKey(entry.HostAlias, entry.JobID, entry.EnqueuedAt)
		size := s.pendingSizes[key]
		delete(s.pendingSizes, key)
		s.sizeMu.Unlock()

		if execErr != nil {
			s.log.Warn("transfer failed", "host", alias, "job_id", entry.JobID, "error", execErr)
			s.Fanout.Transfer('E', fmt.Sprintf("job %d to %s failed: %v", entry.JobID, alias, execErr))
			if err := s.FSA.RecordFailure(alias, 1); err != nil {
				s.log.Warn("failed to record fsa failure", "host", alias, "error", err)
			}
			if err := s.FSA.ReleaseSlot(alias, slot); err != nil {
				s.log.Warn("failed to release fsa slot after failed transfer", "host", alias, "error", err)
			}
			continue
		}

		if err := s.FSA.ReleaseSlot(alias, slot); err != nil {
			s.log.Warn("failed to release fsa slot", "host", alias, "error", err)
		}
		if err := s.FSA.AdjustCounters(alias, -1, -size); err != nil {
			s.log.Warn("failed to adjust fsa counters after delivery", "host", alias, "error", err)
		}
		if err := s.FSA.ClearErrors(alias); err != nil {
			s.log.Warn("failed to clear fsa errors after delivery", "host", alias, "error", err)
		}
		if err := s.Queue.Remove(alias, entry.JobID); err != nil {
			s.log.Warn("delivered entry missing from queue", "host", alias, "job_id", entry.JobID, "error", err)
		}
		s.Fanout.Output('I', fmt.Sprintf("delivered job %d to %s", entry.JobID, alias))
	}
}

// failureOnce drives C9 (spec.md §4.9): reconcile the configured
// ALDA_DAEMON_DEF child set and reap any that exited, sweep the
// staging pool directories for stuck files, and reset any FSA slot
// whose owning worker is no longer alive, requeuing its in-flight
// message. Because transfers run synchronously inside dispatchOnce
// rather than as separate worker processes (the wire-protocol clients
// themselves are out of this repo's scope), the only process id that
// ever claims a slot is this daemon's own — so WorkerZombieCheck's
// alivePIDs set always contains it and the reconciliation it performs
// is a no-op in practice. The wiring stays in place because a future
// out-of-process Transferer (a real FTP/SFTP/HTTP/SMTP client run as
// a child) would assign real, possibly-dead pids and make it load-
// bearing again.
func (s *Supervisor) failureOnce() {
	s.mu.Lock()
	defs := append([]string(nil), s.aldaDefs...)
	watched := append([]failure.WatchedDir(nil), s.watchedDirs...)
	hosts := append([]string(nil), s.hostAliases...)
	s.mu.Unlock()

	if err := s.Aldad.Reconcile(context.Background(), defs); err != nil {
		s.log.Warn("aldad reconcile failed", "error", err)
	}
	s.Aldad.ZombieCheck()

	if len(watched) > 0 {
		failure.StuckFileSweep(s.log, s.Fanout, watched)
	}

	owners, err := failure.ListOwners(s.FSA, hosts)
	if err != nil {
		s.log.Warn("failed to list fsa slot owners", "error", err)
		return
	}
	alive := map[int32]bool{int32(os.Getpid()): true}
	failure.WorkerZombieCheck(s.log, s.FSA, s.Queue, owners, alive)
}

// HostStatus implements pkg/server.StatusProvider.
func (s *Supervisor) HostStatus() (interface{}, error) {
	return s.FSA.Snapshot(), nil
}

// DirectoryStatus implements pkg/server.StatusProvider.
func (s *Supervisor) DirectoryStatus() (interface{}, error) {
	return s.FRA.Snapshot(), nil
}

// QueueStatus implements pkg/server.StatusProvider.
func (s *Supervisor) QueueStatus() (interface{}, error) {
	return s.Queue.Snapshot(), nil
}

// MonitorStatus implements pkg/server.StatusProvider.
func (s *Supervisor) MonitorStatus() (interface{}, error) {
	return s.Monitor.Snapshot(), nil
}

// --- DIR_CONFIG/AFD_CONFIG -> FSA/FRA topology -----------------------

type topology struct {
	hostOrder      []string
	hostDefaults   map[string]fsa.HostDefaults
	dirOrder       []string
	dirSpecs       map[string]fra.NewDirSpec
	dirPrimaryHost map[string]string
	dirJobs        []dirJob
	watchedDirs    []failure.WatchedDir
}

// shortAlias derives an FSA/FRA-sized alias (MaxHostnameLength=8,
// MaxDirAlias=10 bytes) from an arbitrary string by hashing it, since
// DIR_CONFIG carries full hostnames/paths but the shared-area record
// layout only has room for a short id (spec.md §3's alias fields).
func shortAlias(prefix byte, s string, hexDigits int) string {
	sum := crc32.ChecksumIEEE([]byte(s))
	return fmt.Sprintf("%c%0*x", prefix, hexDigits, sum)[:1+hexDigits]
}

func hostAliasFor(recipient string) string {
	host := recipient
	if u, err := url.Parse(recipient); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	return shortAlias('h', host, 6)
}

func dirAliasFor(path string) string {
	return shortAlias('d', path, 8)
}

// buildTopology parses every DIR_CONFIG directory/destination into the
// FSA host list, FRA directory list, and per-directory scan/dispatch
// job description ConfigureFromDisk wires up.
func (s *Supervisor) buildTopology(afdCfg *afdconfig.Config, entries []dirconfig.Entry) (*topology, error) {
	defaultMaxErrors := afdCfg.IntOr(afdconfig.KeyMaxErrors, 10)
	defaultRetry := afdCfg.IntOr(afdconfig.KeyRetryInterval, 60)
	defaultOldTime := time.Duration(afdCfg.IntOr(afdconfig.KeyDefaultOldTime, 3600)) * time.Second

	topo := &topology{
		hostDefaults:   make(map[string]fsa.HostDefaults),
		dirSpecs:       make(map[string]fra.NewDirSpec),
		dirPrimaryHost: make(map[string]string),
	}
	seenHost := make(map[string]bool)

	for _, entry := range entries {
		dirAlias := dirAliasFor(entry.Directory)
		dirID, err := s.DNB.Register(entry.Directory)
		if err != nil {
			return nil, err
		}
		fileMaskID, err := s.FileMask.Register(entry.FileMasks)
		if err != nil {
			return nil, err
		}

		job := dirJob{
			Alias: dirAlias,
			Cfg: scanner.ScanConfig{
				SourceDir: entry.Directory,
				PoolDir:   filepath.Join(s.FifoDir, "..", "files", "outgoing", dirAlias),
				Policy: scanner.Policy{
					AcceptDotFiles: false,
					Match:          scanner.JoinMaskPatterns(entry.FileMasks),
				},
				DirID: dirID,
			},
		}

		var primaryHost string
		for _, dest := range entry.Destinations {
			hostAlias := hostAliasFor(dest.Recipient)
			if primaryHost == "" {
				primaryHost = hostAlias
			}
			if !seenHost[hostAlias] {
				seenHost[hostAlias] = true
				topo.hostOrder = append(topo.hostOrder, hostAlias)
				topo.hostDefaults[hostAlias] = fsa.HostDefaults{
					Alias:            hostAlias,
					AllowedTransfers: int32(dest.IntOption("transfers", 1)),
					MaxErrors:        int32(dest.IntOption("max_errors", defaultMaxErrors)),
					RetryInterval:    int32(dest.IntOption("retry_interval", defaultRetry)),
				}
			}

			priority := dest.IntOption("priority", 5)
			if priority < 0 {
				priority = 0
			}
			if priority > 9 {
				priority = 9
			}
			signature := dest.Recipient + "|" + strings.Join(dest.Options, ",")
			jobID, err := s.JID.Register(signature, int32(dirID), int32(fileMaskID), byte('0'+priority))
			if err != nil {
				return nil, err
			}

			job.Cfg.AgeLimit = int64(dest.IntOption("age-limit", int(job.Cfg.AgeLimit)))
			job.Destinations = append(job.Destinations, destJob{
				HostAlias: hostAlias,
				JobID:     jobID,
				Priority:  byte('0' + priority),
			})
		}
		if primaryHost == "" {
			// A directory with no destinations still gets scanned and
			// aged-out (spec.md §4.5 step 4 applies unconditionally),
			// it just never queues anything.
			primaryHost = dirAlias
		}

		topo.dirOrder = append(topo.dirOrder, dirAlias)
		topo.dirPrimaryHost[dirAlias] = primaryHost
		topo.dirSpecs[dirAlias] = fra.NewDirSpec{
			Alias: dirAlias,
			URL:   entry.Directory,
			DirID: dirID,
		}
		topo.dirJobs = append(topo.dirJobs, job)
		topo.watchedDirs = append(topo.watchedDirs, failure.WatchedDir{
			Path:        job.Cfg.PoolDir,
			DirID:       dirID,
			OldFileTime: defaultOldTime,
			RemoveFlag:  true,
		})
	}

	return topo, nil
}

// parseRemoteAFDs reads REMOTE_AFD_DEF entries from AFD_CONFIG
// ("<alias> <addr> <poll_seconds>", the same space-separated grammar
// ALDA_DAEMON_DEF already uses in afdconfig's flat KEY_DEF format) into
// the C7 monitor scheduler's RemoteAFD list (spec.md §4.7 "MON_CONFIG").
func parseRemoteAFDs(cfg *afdconfig.Config) []monitor.RemoteAFD {
	var out []monitor.RemoteAFD
	for _, def := range cfg.All(afdconfig.KeyRemoteAFD) {
		fields := strings.Fields(def)
		if len(fields) != 3 {
			continue
		}
		seconds := 0
		fmt.Sscanf(fields[2], "%d", &seconds)
		if seconds <= 0 {
			continue
		}
		out = append(out, monitor.RemoteAFD{
			Alias:    fields[0],
			Addr:     fields[1],
			Interval: time.Duration(seconds) * time.Second,
		})
	}
	return out
}
