// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package failure

import (
	"github.com/stratastor/logger"

	"github.com/stratastor/afd/pkg/fsa"
	"github.com/stratastor/afd/pkg/queue"
)

// SlotOwner reports which transfer slot a host entry currently has
// reserved, so WorkerZombieCheck can tell a live worker from a dead
// one without pkg/failure needing to know FSA's internal slot layout.
type SlotOwner struct {
	HostAlias string
	SlotIndex int
	ProcID    int32
	JobID     uint32
}

// ListOwners returns every non-idle job_status slot currently claimed
// across table, for the caller to cross-reference against the live
// process set.
func ListOwners(table *fsa.Table, aliases []string) ([]SlotOwner, error) {
	var owners []SlotOwner
	for _, alias := range aliases {
		entry, err := table.Host(alias)
		if err != nil {
			return nil, err
		}
		for i, js := range entry.JobStatus {
			if js.ProcID == fsa.NoID {
				continue
			}
			owners = append(owners, SlotOwner{
				HostAlias: alias,
				SlotIndex: i,
				ProcID:    js.ProcID,
				JobID:     js.JobID,
			})
		}
	}
	return owners, nil
}

// WorkerZombieCheck resets any FSA slot whose owning process id is not
// in alivePIDs and moves its in-flight job back to the queue head
// (spec.md §4.9 "Zombie check in FD: a crashed worker's slot is reset
// in FSA and its in-flight message is moved back to the queue head").
func WorkerZombieCheck(log logger.Logger, table *fsa.Table, q *queue.Queue, owners []SlotOwner, alivePIDs map[int32]bool) {
	for _, o := range owners {
		if alivePIDs[o.ProcID] {
			continue
		}
		log.Warn("resetting fsa slot after zombie worker", "host", o.HostAlias, "slot", o.SlotIndex, "proc_id", o.ProcID, "job_id", o.JobID)
		if err := table.ReleaseSlot(o.HostAlias, o.SlotIndex); err != nil {
			log.Error("failed to release fsa slot", "host", o.HostAlias, "slot", o.SlotIndex, "error", err)
			continue
		}
		q.RequeueHead(queue.QueueEntry{
			Kind:      queue.KindPush,
			HostAlias: o.HostAlias,
			JobID:     o.JobID,
		})
	}
}
