// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package failure implements C9: the aldad log-query-daemon supervisor,
// the stuck-file sweep over user directories, and the worker zombie-slot
// reconciliation that feeds FSA/queue cleanup after a transfer worker
// dies unexpectedly (spec.md §4.9, original_source/src/log/alda/aldad.c,
// original_source/amg/search_old_files.c).
package failure

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/stratastor/logger"

	"github.com/stratastor/afd/pkg/errors"
)

// AldaProcess tracks one spawned query-daemon child (struct
// aldad_proc_list in the original). exited/exitState are written
// exactly once by the waiter goroutine started in spawn(), guarded by
// done so ZombieCheck never calls cmd.Wait itself (calling Wait twice
// on the same *exec.Cmd is invalid).
type AldaProcess struct {
	Parameters string
	cmd        *exec.Cmd
	inList     bool

	mu        sync.Mutex
	done      bool
	exitState *os.ProcessState
}

func (p *AldaProcess) markExited(state *os.ProcessState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = true
	p.exitState = state
}

func (p *AldaProcess) exited() (bool, *os.ProcessState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.exitState
}

// Aldad diffs ALDA_DAEMON_DEF entries in AFD_CONFIG on every Reconcile
// call, spawning a child process for each new entry and killing any
// child whose entry disappeared, then reaps terminated children
// (aldad.c's main loop, split into an explicit method instead of an
// infinite for(;;) so a caller can drive it from a gocron tick).
type Aldad struct {
	mu        sync.Mutex
	log       logger.Logger
	binary    string
	processes []*AldaProcess
}

// NewAldad returns an Aldad that spawns binary (the alda query-daemon
// executable) for each configured parameter set.
func NewAldad(log logger.Logger, binary string) *Aldad {
	return &Aldad{log: log, binary: binary}
}

// Reconcile brings the running child set in line with defs (one
// element per ALDA_DAEMON_DEF line's parameter string), starting new
// children and terminating ones whose definition was removed.
func (a *Aldad) Reconcile(ctx context.Context, defs []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, p := range a.processes {
		p.inList = false
	}

	for _, def := range defs {
		if p := a.find(def); p != nil {
			p.inList = true
			continue
		}
		p, err := a.spawn(ctx, def)
		if err != nil {
			a.log.Error("failed to start alda process", "parameters", def, "error", err)
			continue
		}
		p.inList = true
		a.processes = append(a.processes, p)
	}

	kept := a.processes[:0]
	for _, p := range a.processes {
		if p.inList {
			kept = append(kept, p)
			continue
		}
		if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
			a.log.Warn("failed to signal alda process", "parameters", p.Parameters, "error", err)
			kept = append(kept, p)
			continue
		}
	}
	a.processes = kept
	return nil
}

func (a *Aldad) find(parameters string) *AldaProcess {
	for _, p := range a.processes {
		if p.Parameters == parameters {
			return p
		}
	}
	return nil
}

func (a *Aldad) spawn(ctx context.Context, parameters string) (*AldaProcess, error) {
	args := strings.Fields(parameters)
	cmd := exec.CommandContext(context.WithoutCancel(ctx), a.binary, args...)
	if err := cmd.Start(); err != nil {
		return nil, errors.New(errors.FailureAldadSpawnFailed, err.Error()).
			WithMetadata("parameters", parameters)
	}
	p := &AldaProcess{Parameters: parameters, cmd: cmd}
	go func() {
		_ = cmd.Wait()
		p.markExited(cmd.ProcessState)
	}()
	return p, nil
}

// ZombieCheck reaps any child whose waiter goroutine has already
// observed its exit, logging non-zero exits (aldad.c's non-blocking
// waitpid(WNOHANG) loop, translated to a poll over each process's
// already-resolved exit state instead of calling Wait from here).
func (a *Aldad) ZombieCheck() {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.processes[:0]
	for _, p := range a.processes {
		done, state := p.exited()
		if !done {
			kept = append(kept, p)
			continue
		}
		if state != nil && !state.Success() {
			a.log.Warn("alda log process died", "parameters", p.Parameters, "exit_code", state.ExitCode())
		}
	}
	a.processes = kept
}

// Count returns the number of currently tracked processes.
func (a *Aldad) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.processes)
}
