// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package failure

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stratastor/logger"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "failure-test")
	require.NoError(t, err)
	return l
}

func TestAldadSpawnsAndKillsOnDiff(t *testing.T) {
	log := testLogger(t)
	a := NewAldad(log, "sleep")

	require.NoError(t, a.Reconcile(context.Background(), []string{"5"}))
	require.Equal(t, 1, a.Count())

	// Same definition again: no new process.
	require.NoError(t, a.Reconcile(context.Background(), []string{"5"}))
	require.Equal(t, 1, a.Count())

	// Definition removed: the process is signaled and dropped.
	require.NoError(t, a.Reconcile(context.Background(), nil))
	require.Equal(t, 0, a.Count())
}

func TestAldadZombieCheckReapsExitedProcess(t *testing.T) {
	log := testLogger(t)
	a := NewAldad(log, "true")

	require.NoError(t, a.Reconcile(context.Background(), []string{""}))
	require.Equal(t, 1, a.Count())

	require.Eventually(t, func() bool {
		a.ZombieCheck()
		return a.Count() == 0
	}, time.Second, 10*time.Millisecond, "exited alda process must be reaped")
}
