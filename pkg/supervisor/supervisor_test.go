// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stratastor/afd/pkg/fsa"
	"github.com/stratastor/afd/pkg/registry"
)

func TestNewAttachesEmptyTables(t *testing.T) {
	dir := t.TempDir()
	sup, err := New(dir)
	require.NoError(t, err)

	hosts, err := sup.HostStatus()
	require.NoError(t, err)
	require.Empty(t, hosts)

	dirs, err := sup.DirectoryStatus()
	require.NoError(t, err)
	require.Empty(t, dirs)

	queued, err := sup.QueueStatus()
	require.NoError(t, err)
	require.Empty(t, queued)

	mon, err := sup.MonitorStatus()
	require.NoError(t, err)
	require.Empty(t, mon)
}

func TestSweepOncePublishesCML(t *testing.T) {
	dir := t.TempDir()
	sup, err := New(dir)
	require.NoError(t, err)

	_, err = sup.FSA.Reorder([]string{"h1"}, map[string]fsa.HostDefaults{
		"h1": {Alias: "h1", AllowedTransfers: 2, MaxErrors: 3},
	})
	require.NoError(t, err)

	_, err = sup.FSA.ClaimSlot("h1", 4242, 99)
	require.NoError(t, err)

	sup.sweepOnce()

	ids, err := registry.ReadCML(dir)
	require.NoError(t, err)
	require.Equal(t, []uint32{99}, ids)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	sup, err := New(dir)
	require.NoError(t, err)
	sup.SetSweepInterval(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
