// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stratastor/logger"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "supervisor-test")
	require.NoError(t, err)
	return l
}

func writeDirConfig(t *testing.T, etcDir, sourceDir string) {
	t.Helper()
	body := "[directory]\n" + sourceDir + "\n" +
		"[files]\n*.dat\n" +
		"[destination]\n" +
		"[recipient]\nftp://remote-host/incoming\n" +
		"[options]\npriority=3\n"
	require.NoError(t, os.WriteFile(filepath.Join(etcDir, "DIR_CONFIG"), []byte(body), 0644))
}

// TestConfigureFromDiskToleratesMissingConfig confirms a fresh install
// (no AFD_CONFIG/DIR_CONFIG yet) still configures successfully with an
// empty topology, rather than failing startup.
func TestConfigureFromDiskToleratesMissingConfig(t *testing.T) {
	dir := t.TempDir()
	sup, err := New(dir)
	require.NoError(t, err)

	etcDir := t.TempDir()
	logDir := t.TempDir()
	err = sup.ConfigureFromDisk(etcDir, logDir, testLogger(t), DefaultIntervals())
	require.NoError(t, err)

	hosts, err := sup.HostStatus()
	require.NoError(t, err)
	require.Empty(t, hosts)
}

// TestScanOnceDispatchOnceDeliversFile exercises C5's scan loop and
// C6's dispatch loop end to end: a file dropped in the watched
// directory is staged, queued against the DIR_CONFIG destination, and
// delivered by the default NoopExecutor, clearing FSA's counters and
// the queue entry.
func TestScanOnceDispatchOnceDeliversFile(t *testing.T) {
	fifoDir := t.TempDir()
	sup, err := New(fifoDir)
	require.NoError(t, err)

	etcDir := t.TempDir()
	sourceDir := t.TempDir()
	writeDirConfig(t, etcDir, sourceDir)
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "a.dat"), []byte("payload"), 0644))

	logDir := t.TempDir()
	require.NoError(t, sup.ConfigureFromDisk(etcDir, logDir, testLogger(t), DefaultIntervals()))

	dirs, err := sup.DirectoryStatus()
	require.NoError(t, err)
	require.Len(t, dirs, 1)

	hosts, err := sup.HostStatus()
	require.NoError(t, err)
	require.Len(t, hosts, 1)

	sup.scanOnce()
	require.Equal(t, 1, sup.Queue.Len())

	sup.dispatchOnce()
	require.Equal(t, 0, sup.Queue.Len())

	outputLog, err := os.ReadFile(filepath.Join(logDir, "output_log"))
	require.NoError(t, err)
	require.NotEmpty(t, outputLog)
}

// TestFailureOnceSkipsWithoutDefs confirms failureOnce tolerates an
// empty ALDA_DAEMON_DEF list and an empty watched-directory set
// without erroring — the common case for an install that hasn't
// configured any alda query daemons.
func TestFailureOnceSkipsWithoutDefs(t *testing.T) {
	fifoDir := t.TempDir()
	sup, err := New(fifoDir)
	require.NoError(t, err)

	etcDir := t.TempDir()
	logDir := t.TempDir()
	require.NoError(t, sup.ConfigureFromDisk(etcDir, logDir, testLogger(t), DefaultIntervals()))

	require.NotPanics(t, func() { sup.failureOnce() })
}
