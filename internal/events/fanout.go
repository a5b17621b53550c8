// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"io"
	"sync"
	"time"

	"github.com/stratastor/logger"
)

// Fanout multiplexes framed records to the seven rotating logs. Each
// daemon process owns one Fanout; the writer for each log kind is
// attached up front with Register and is never opened on demand.
type Fanout struct {
	mu      sync.Mutex
	writers map[Kind]io.Writer
	log     logger.Logger
}

// NewFanout creates a Fanout. Writers are registered with Register; a
// kind with no registered writer silently drops records (matching the
// spec's framing-only contract — rotation and presence of a reader is
// external).
func NewFanout(l logger.Logger) *Fanout {
	return &Fanout{
		writers: make(map[Kind]io.Writer),
		log:     l,
	}
}

// Register attaches a writer (typically an *os.File opened on a named
// fifo) for a log kind.
func (f *Fanout) Register(k Kind, w io.Writer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writers[k] = w
}

func (f *Fanout) write(k Kind, data []byte) {
	f.mu.Lock()
	w, ok := f.writers[k]
	f.mu.Unlock()
	if !ok {
		return
	}
	if _, err := w.Write(data); err != nil && f.log != nil {
		f.log.Error("log fanout write failed", "kind", k.String(), "error", err)
	}
}

// System emits a system_log line.
func (f *Fanout) System(severity byte, message string) {
	f.write(KindSystem, FrameText(TextRecord{Time: time.Now(), Severity: severity, Message: message}))
}

// Transfer emits a transfer_log line.
func (f *Fanout) Transfer(severity byte, message string) {
	f.write(KindTransfer, FrameText(TextRecord{Time: time.Now(), Severity: severity, Message: message}))
}

// Receive emits a receive_log line.
func (f *Fanout) Receive(severity byte, message string) {
	f.write(KindReceive, FrameText(TextRecord{Time: time.Now(), Severity: severity, Message: message}))
}

// Input emits an input_log line (AMG side, one per file scanned/matched).
func (f *Fanout) Input(severity byte, message string) {
	f.write(KindInput, FrameText(TextRecord{Time: time.Now(), Severity: severity, Message: message}))
}

// Output emits an output_log line (FD side, one per file sent).
func (f *Fanout) Output(severity byte, message string) {
	f.write(KindOutput, FrameText(TextRecord{Time: time.Now(), Severity: severity, Message: message}))
}

// Delete emits a delete_log binary record.
func (f *Fanout) Delete(r DeleteLogRecord) {
	f.write(KindDelete, FrameDelete(r))
}

// Production emits a production_log record.
func (f *Fanout) Production(r ProductionLogRecord) {
	f.write(KindProduction, FrameProduction(r))
}
