// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package failure

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stratastor/afd/pkg/fsa"
	"github.com/stratastor/afd/pkg/queue"
)

func TestWorkerZombieCheckResetsDeadSlotAndRequeues(t *testing.T) {
	table := fsa.NewTable(t.TempDir())
	require.NoError(t, table.Load())
	_, err := table.Reorder([]string{"h1"}, map[string]fsa.HostDefaults{
		"h1": {Alias: "h1", AllowedTransfers: 2},
	})
	require.NoError(t, err)

	slot, err := table.ClaimSlot("h1", 4242, 99)
	require.NoError(t, err)

	owners, err := ListOwners(table, []string{"h1"})
	require.NoError(t, err)
	require.Len(t, owners, 1)
	require.Equal(t, slot, owners[0].SlotIndex)
	require.EqualValues(t, 4242, owners[0].ProcID)

	q := queue.NewQueue()
	log := testLogger(t)
	WorkerZombieCheck(log, table, q, owners, map[int32]bool{})

	h1, err := table.Host("h1")
	require.NoError(t, err)
	require.Equal(t, fsa.NoID, h1.JobStatus[slot].ProcID)

	entries := q.Snapshot()
	require.Len(t, entries, 1)
	require.Equal(t, "h1", entries[0].HostAlias)
	require.EqualValues(t, 99, entries[0].JobID)
}

func TestWorkerZombieCheckLeavesAliveSlotsAlone(t *testing.T) {
	table := fsa.NewTable(t.TempDir())
	require.NoError(t, table.Load())
	_, err := table.Reorder([]string{"h1"}, map[string]fsa.HostDefaults{
		"h1": {Alias: "h1", AllowedTransfers: 2},
	})
	require.NoError(t, err)
	slot, err := table.ClaimSlot("h1", 555, 1)
	require.NoError(t, err)

	owners, err := ListOwners(table, []string{"h1"})
	require.NoError(t, err)

	q := queue.NewQueue()
	log := testLogger(t)
	WorkerZombieCheck(log, table, q, owners, map[int32]bool{555: true})

	h1, err := table.Host("h1")
	require.NoError(t, err)
	require.EqualValues(t, 555, h1.JobStatus[slot].ProcID)
	require.Empty(t, q.Snapshot())
}
