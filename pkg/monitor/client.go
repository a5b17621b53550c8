// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/stratastor/afd/pkg/errors"
)

// Client speaks the afd_mon <-> afdd line-based wire protocol (spec.md
// §4.7, §6 "Monitor wire protocol"): a short-lived TCP connection per
// call, over which each request tag gets one reply line (JL gets
// several, ended by a blank line).
//
// Every reply line is newline-terminated ASCII; the first token is the
// reply tag, remaining tokens are space-separated fields. This mirrors
// the fifo command plane's tag+fields framing (pkg/fifo) but over TCP
// instead of a named pipe, since a monitor polls an AFD on another
// host.
type Client struct {
	Addr    string
	Timeout time.Duration
}

// NewClient returns a Client that dials addr ("host:port") with a
// per-call Timeout (spec.md §4.7: "a poll that doesn't complete within
// its interval is abandoned and logged as a connect failure").
func NewClient(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{Addr: addr, Timeout: timeout}
}

// PollResult is one complete AM/FD/AW poll cycle's reply (spec.md §4.7
// "AM" alive-check, "FD" file-distribution counters, "AW" archive-watch
// status).
type PollResult struct {
	Alive           bool
	FilesCount      int64
	FilesSize       int64
	TransferRate    int64
	FilesReceived   int64
	JobsQueued      int32
	ActiveTransfers int32
	ErrorCounter    int32
	AMGLed          int32
	FDLed           int32
	ArchiveWatchLed int32
}

// Poll dials addr, sends "AM", "FD", and "AW" in sequence, and parses
// their single-line replies (spec.md §4.7). Each tag is answered by a
// reply of the same tag followed by its fields, e.g. "FD fc fs tr fr
// jq at ec".
func (c *Client) Poll(ctx context.Context) (PollResult, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return PollResult{}, err
	}
	defer conn.Close()

	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	var res PollResult
	amLine, err := c.roundTrip(rw, "AM")
	if err != nil {
		return PollResult{}, err
	}
	res.Alive = strings.HasPrefix(amLine, "AM ALIVE") || amLine == "AM"

	fdLine, err := c.roundTrip(rw, "FD")
	if err != nil {
		return PollResult{}, err
	}
	if err := parseFD(fdLine, &res); err != nil {
		return PollResult{}, err
	}

	awLine, err := c.roundTrip(rw, "AW")
	if err != nil {
		return PollResult{}, err
	}
	res.ArchiveWatchLed = parseLed(awLine)

	return res, nil
}

// SysLog requests "SR" (system-log ring, spec.md §4.7 "SR" tag) and
// returns the raw severity-char payload following the tag.
func (c *Client) SysLog(ctx context.Context) (string, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))
	line, err := c.roundTrip(rw, "SR")
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(line, "SR "), nil
}

// JobList requests "JL" (job-list, spec.md §4.7 "JL <i> <jid> <dirid>
// <cnt> <prio> <recipient>") and parses every returned line until a
// blank terminator line.
func (c *Client) JobList(ctx context.Context) ([]JobListEntry, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	if _, err := fmt.Fprintf(rw, "JL\n"); err != nil {
		return nil, errors.New(errors.MonitorProtocolError, err.Error())
	}
	if err := rw.Flush(); err != nil {
		return nil, errors.New(errors.MonitorProtocolError, err.Error())
	}

	var out []JobListEntry
	for {
		line, err := readLine(rw.Reader, c.deadline())
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		e, err := parseJL(line)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Shutdown performs the shutdown_mon handshake (spec.md §4.7
// "shutdown_mon": send SHUTDOWN, await an ACKN reply within Timeout).
func (c *Client) Shutdown(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	line, err := c.roundTrip(rw, "SHUTDOWN")
	if err != nil {
		return errors.New(errors.MonitorShutdownTimeout, c.Addr)
	}
	if line != "ACKN" {
		return errors.New(errors.MonitorShutdownTimeout, c.Addr).
			WithMetadata("got", line)
	}
	return nil
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: c.Timeout}
	conn, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return nil, errors.New(errors.MonitorConnectFailed, c.Addr).
			WithMetadata("error", err.Error())
	}
	return conn, nil
}

func (c *Client) deadline() time.Time {
	return time.Now().Add(c.Timeout)
}

func (c *Client) roundTrip(rw *bufio.ReadWriter, tag string) (string, error) {
	if _, err := fmt.Fprintf(rw, "%s\n", tag); err != nil {
		return "", errors.New(errors.MonitorProtocolError, err.Error())
	}
	if err := rw.Flush(); err != nil {
		return "", errors.New(errors.MonitorProtocolError, err.Error())
	}
	return readLine(rw.Reader, c.deadline())
}

func readLine(r *bufio.Reader, deadline time.Time) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := r.ReadString('\n')
		ch <- result{strings.TrimRight(line, "\r\n"), err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return "", errors.New(errors.MonitorTimeout, res.err.Error())
		}
		return res.line, nil
	case <-time.After(time.Until(deadline)):
		return "", errors.New(errors.MonitorTimeout, "no reply before deadline")
	}
}

func parseFD(line string, res *PollResult) error {
	fields := strings.Fields(line)
	if len(fields) < 8 || fields[0] != "FD" {
		return errors.New(errors.MonitorProtocolError, line)
	}
	vals := make([]int64, 7)
	for i, f := range fields[1:8] {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return errors.New(errors.MonitorProtocolError, line)
		}
		vals[i] = v
	}
	res.FilesCount = vals[0]
	res.FilesSize = vals[1]
	res.TransferRate = vals[2]
	res.FilesReceived = vals[3]
	res.JobsQueued = int32(vals[4])
	res.ActiveTransfers = int32(vals[5])
	res.ErrorCounter = int32(vals[6])
	return nil
}

func parseLed(line string) int32 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return int32(LEDUnknown)
	}
	v, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return int32(LEDUnknown)
	}
	return int32(v)
}

func parseJL(line string) (JobListEntry, error) {
	fields := strings.Fields(line)
	if len(fields) < 6 || fields[0] != "JL" {
		return JobListEntry{}, errors.New(errors.MonitorProtocolError, line)
	}
	idx, err1 := strconv.Atoi(fields[1])
	jid, err2 := strconv.ParseUint(fields[2], 10, 32)
	dirID, err3 := strconv.ParseUint(fields[3], 10, 32)
	cnt, err4 := strconv.Atoi(fields[4])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || len(fields[5]) == 0 {
		return JobListEntry{}, errors.New(errors.MonitorProtocolError, line)
	}
	return JobListEntry{
		Index:     idx,
		JobID:     uint32(jid),
		DirID:     uint32(dirID),
		Count:     cnt,
		Priority:  fields[5][0],
		Recipient: strings.Join(fields[6:], " "),
	}, nil
}
