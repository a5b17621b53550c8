// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stratastor/logger"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "error"}, "test")
	require.NoError(t, err)
	return l
}

func TestBuildPexecArgsSubstitution(t *testing.T) {
	args, err := BuildPexecArgs("/bin/echo %s %s", "hello", "world")
	require.NoError(t, err)
	require.Equal(t, []string{"/bin/echo", "hello", "world"}, args)
}

func TestBuildPexecArgsTooManyTokens(t *testing.T) {
	template := "/bin/echo " + strings.Repeat("%s ", MaxExecFileSubstitution+1)
	_, err := BuildPexecArgs(template, make([]string, MaxExecFileSubstitution+1)...)
	require.Error(t, err)
}

func TestBuildPexecArgsMissingSubstitution(t *testing.T) {
	_, err := BuildPexecArgs("/bin/echo %s %s", "only-one")
	require.Error(t, err)
}

func TestRunPexecSuccess(t *testing.T) {
	res, err := RunPexec(context.Background(), testLogger(t), "/bin/echo %s", time.Second, "hi")
	require.NoError(t, err)
	require.Contains(t, string(res.Stdout), "hi")
	require.False(t, res.TimedOut)
}

func TestRunPexecTimeout(t *testing.T) {
	res, err := RunPexec(context.Background(), testLogger(t), "/bin/sleep %s", 10*time.Millisecond, "2")
	require.Error(t, err)
	require.True(t, res.TimedOut)
}
