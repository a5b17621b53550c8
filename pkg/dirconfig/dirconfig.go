// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package dirconfig parses etc/DIR_CONFIG: a sequence of directory
// blocks, each naming a watched path, its file-mask groups, and one or
// more destination blocks (recipient URL plus options), the text
// format AMG rebuilds FRA/JID/DNB from whenever the file changes
// (spec.md §4.3 "DIR_CONFIG change", §6 "On-disk layout").
//
// The on-disk shape (one stanza per directory):
//
//	[directory]
//	/local/incoming/dir
//	[files]
//	*.dat
//	[destination]
//	[recipient]
//	ftp://user@host/remote/path
//	[options]
//	priority=3
//	age-limit=120
package dirconfig

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/stratastor/afd/pkg/errors"
)

// Destination is one [destination] block: a single recipient URL plus
// its free-form option lines (spec.md §3 "Message" options,
// original_source/src/fd/eval_recipient.c framing).
type Destination struct {
	Recipient string
	Options   []string
}

// Entry is one parsed directory stanza.
type Entry struct {
	Directory    string
	FileMasks    []string
	Destinations []Destination
}

// Option looks up key=value among d.Options, returning ok=false if
// key isn't present.
func (d Destination) Option(key string) (string, bool) {
	prefix := key + "="
	for _, o := range d.Options {
		if strings.HasPrefix(o, prefix) {
			return strings.TrimPrefix(o, prefix), true
		}
	}
	return "", false
}

// IntOption parses Option(key) as an int, falling back to def.
func (d Destination) IntOption(key string, def int) int {
	v, ok := d.Option(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

type section int

const (
	sectionNone section = iota
	sectionDirectory
	sectionFiles
	sectionRecipient
	sectionOptions
)

// Parse reads a DIR_CONFIG stream into its directory entries. Every
// content line belongs to whichever `[tag]` section preceded it;
// `[directory]` always starts a new Entry, and `[destination]` always
// starts a new Destination within the current Entry.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var entries []Entry
	var cur *Entry
	var curDest *Destination
	sec := sectionNone

	flushDest := func() {
		if cur != nil && curDest != nil {
			cur.Destinations = append(cur.Destinations, *curDest)
		}
		curDest = nil
	}
	flushEntry := func() {
		flushDest()
		if cur != nil {
			entries = append(entries, *cur)
		}
		cur = nil
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch strings.ToLower(line) {
		case "[directory]":
			flushEntry()
			cur = &Entry{}
			sec = sectionDirectory
			continue
		case "[files]":
			sec = sectionFiles
			continue
		case "[destination]":
			flushDest()
			curDest = &Destination{}
			sec = sectionRecipient
			continue
		case "[recipient]":
			sec = sectionRecipient
			continue
		case "[options]":
			sec = sectionOptions
			continue
		}

		switch sec {
		case sectionDirectory:
			if cur == nil {
				return nil, parseErr(lineNo, line, "directory line outside a [directory] stanza")
			}
			if cur.Directory != "" {
				return nil, parseErr(lineNo, line, "more than one path in a [directory] stanza")
			}
			cur.Directory = line
		case sectionFiles:
			if cur == nil {
				return nil, parseErr(lineNo, line, "file mask outside a [directory] stanza")
			}
			cur.FileMasks = append(cur.FileMasks, line)
		case sectionRecipient:
			if curDest == nil {
				return nil, parseErr(lineNo, line, "recipient outside a [destination] block")
			}
			curDest.Recipient = line
		case sectionOptions:
			if curDest == nil {
				return nil, parseErr(lineNo, line, "option outside a [destination] block")
			}
			curDest.Options = append(curDest.Options, line)
		default:
			return nil, parseErr(lineNo, line, "content before the first [directory] tag")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(errors.ConfigParseError, err.Error())
	}
	flushEntry()
	return entries, nil
}

func parseErr(lineNo int, line, reason string) error {
	return errors.New(errors.ConfigParseError, reason).
		WithMetadata("line_no", strconv.Itoa(lineNo)).
		WithMetadata("line", line)
}

// ParseFile loads and parses path.
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ConfigNotFound, path)
		}
		return nil, errors.New(errors.ConfigLoadFailed, err.Error()).
			WithMetadata("path", path)
	}
	defer f.Close()
	return Parse(f)
}
