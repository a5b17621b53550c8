// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeAfdd answers every request line on a connection with one reply
// line from handler, so a single Poll connection can carry AM, FD and AW.
func fakeAfdd(t *testing.T, handler func(tag string) string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				r := bufio.NewReader(conn)
				for {
					line, err := r.ReadString('\n')
					if err != nil {
						return
					}
					tag := line[:len(line)-1]
					reply := handler(tag)
					if _, err := conn.Write([]byte(reply + "\n")); err != nil {
						return
					}
				}
			}()
		}
	}()
	return ln.Addr().String()
}

func TestClientPollParsesAllTags(t *testing.T) {
	addr := fakeAfdd(t, func(tag string) string {
		switch tag {
		case "AM":
			return "AM ALIVE"
		case "FD":
			return "FD 10 2048 512 9 2 1 0"
		case "AW":
			return "AW 0"
		}
		return ""
	})

	c := NewClient(addr, time.Second)
	res, err := c.Poll(context.Background())
	require.NoError(t, err)
	require.True(t, res.Alive)
	require.EqualValues(t, 10, res.FilesCount)
	require.EqualValues(t, 2048, res.FilesSize)
	require.EqualValues(t, 512, res.TransferRate)
	require.EqualValues(t, 9, res.FilesReceived)
	require.EqualValues(t, 2, res.JobsQueued)
	require.EqualValues(t, 1, res.ActiveTransfers)
	require.EqualValues(t, 0, res.ErrorCounter)
}

func TestClientShutdownHandshake(t *testing.T) {
	addr := fakeAfdd(t, func(tag string) string {
		if tag == "SHUTDOWN" {
			return "ACKN"
		}
		return ""
	})

	c := NewClient(addr, time.Second)
	require.NoError(t, c.Shutdown(context.Background()))
}

func TestClientConnectFailureWraps(t *testing.T) {
	c := NewClient("127.0.0.1:1", 200*time.Millisecond)
	_, err := c.Poll(context.Background())
	require.Error(t, err)
}

func TestClientJobListParsesUntilBlankLine(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		_, _ = r.ReadString('\n')
		conn.Write([]byte("JL 0 17 3 2 4 recipient@host\n"))
		conn.Write([]byte("\n"))
	}()

	c := NewClient(ln.Addr().String(), time.Second)
	jobs, err := c.JobList(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.EqualValues(t, 17, jobs[0].JobID)
	require.EqualValues(t, 3, jobs[0].DirID)
	require.Equal(t, "recipient@host", jobs[0].Recipient)
}
