// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package fifo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSendReceiveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cmd_fifo")

	owner, err := Open(path, path)
	require.NoError(t, err)
	defer owner.Close()

	sender, err := Open(path, path)
	require.NoError(t, err)
	defer sender.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- sender.Send(CmdReread) }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cmd, err := owner.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, CmdReread, cmd)
	require.NoError(t, <-errCh)
}

func TestAwaitReplyTimesOut(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reply_fifo")

	ch, err := Open(path, path)
	require.NoError(t, err)
	defer ch.Close()

	_, err = ch.AwaitReply(50 * time.Millisecond)
	require.Error(t, err)
}

func TestCommandWireTagsMatchOriginal(t *testing.T) {
	require.Equal(t, "SHUTDOWN", CmdShutdown.String())
	require.Equal(t, "REREAD", CmdReread.String())
	require.Equal(t, "ACKN", ReplyAckn.String())
	require.Equal(t, "PROC_TERM", ReplyProcTerm.String())
}
