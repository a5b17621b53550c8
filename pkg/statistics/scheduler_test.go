// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package statistics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stratastor/afd/pkg/fra"
	"github.com/stratastor/afd/pkg/fsa"
)

func TestSchedulerSampleOnceHandlesEmptyTables(t *testing.T) {
	dir := t.TempDir()
	fsaTable := fsa.NewTable(dir)
	fraTable := fra.NewTable(dir)

	sched, err := NewScheduler(fsaTable, fraTable)
	require.NoError(t, err)

	require.NotPanics(t, sched.sampleOnce)
	require.Empty(t, sched.Hosts().Snapshot())
	require.Empty(t, sched.Dirs().Snapshot())
}
