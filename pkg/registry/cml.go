// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stratastor/afd/internal/constants"
	"github.com/stratastor/afd/pkg/errors"
)

// WriteCML writes the current job list (CML, spec.md §4.2: "an external
// 'current job list' file enumerates jobs referenced by the live FSA;
// used to prune stale UI views") to fifoDir/CURRENT_MSG_LIST_FILE. Each
// line is one live job_id in decimal, one per currently referenced job.
// The write goes through a temp-file-then-rename so a concurrent reader
// (a viewer tool) never observes a half-written list.
func WriteCML(fifoDir string, liveJobIDs []uint32) error {
	path := filepath.Join(fifoDir, constants.CurrentMsgListFile)
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.New(errors.RegistryCMLWriteFailed, err.Error())
	}

	w := bufio.NewWriter(f)
	for _, id := range liveJobIDs {
		if _, werr := fmt.Fprintf(w, "%d\n", id); werr != nil {
			f.Close()
			os.Remove(tmp)
			return errors.New(errors.RegistryCMLWriteFailed, werr.Error())
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.New(errors.RegistryCMLWriteFailed, err.Error())
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.New(errors.RegistryCMLWriteFailed, err.Error())
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.New(errors.RegistryCMLWriteFailed, err.Error())
	}
	return nil
}

// ReadCML reads back the job ids WriteCML most recently published.
// Missing files read as an empty list rather than an error: before the
// first FSA-driven publish (or right after a fresh install) there is
// no stale view to prune.
func ReadCML(fifoDir string) ([]uint32, error) {
	path := filepath.Join(fifoDir, constants.CurrentMsgListFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.New(errors.RegistryCMLWriteFailed, err.Error())
	}

	var ids []uint32
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		n, err := strconv.ParseUint(line, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint32(n))
	}
	return ids, nil
}

// noIDSlot is fsa.NoID reinterpreted as the uint32 job ids travel in
// (fsa.JobStatus.JobID is set to uint32(fsa.NoID) for an empty slot).
// Duplicated here rather than imported to keep pkg/registry from
// depending on pkg/fsa for one sentinel constant.
const noIDSlot uint32 = 0xffffffff

// LiveJobIDsFromSlots collects the distinct, occupied job ids across
// every FSA host entry's job_status slots — the set WriteCML publishes
// after each FSA sweep so CML always reflects what the live table, not
// the JID dictionary, actually references.
func LiveJobIDsFromSlots(slotJobIDs [][]uint32) []uint32 {
	seen := make(map[uint32]bool)
	var out []uint32
	for _, slots := range slotJobIDs {
		for _, id := range slots {
			if id == noIDSlot {
				continue
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
