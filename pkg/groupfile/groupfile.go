// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package groupfile parses etc/GROUP_FILE, the user-name-to-recipient-
// list mapping `eval_recipient.c` consults whenever a DIR_CONFIG
// recipient names a group instead of a single user (spec.md §9's
// MAIL_GROUP_IDENTIFIER expansion), grounded on
// original_source/src/fd/get_group_list.c.
//
// The on-disk shape is a sequence of `[name]` headers, each followed
// by one member per line, blank-line or next-`[name]`-terminated:
//
//	[ops-team]
//	alice@example.com
//	bob@example.com
//	# a comment line is ignored
//	carol@example.com
//
//	[other-group]
//	...
//
// A line's content is read with its spaces and tabs stripped (not
// split on — `get_group_list` explicitly "ignores" whitespace rather
// than treating it as a separator), a trailing `#...` comment dropped,
// and a backslash escaping the character that follows it. This repo
// reproduces that member-line scan verbatim; get_group_list.c's own
// pointer bookkeeping additionally anchors its rewind point at the
// header line's trailing newline rather than the first member
// character (the "NOTE: NOT + 1" in the original), which the original
// author flags explicitly but which both of its own passes apply
// identically, leaving the parsed member list unaffected — the
// TestHeaderNewlineOffsetDoesNotShiftMembership test below pins this.
package groupfile

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/stratastor/afd/internal/constants"
	"github.com/stratastor/afd/pkg/errors"
)

// Store is a parsed GROUP_FILE: group name to its ordered member list.
type Store struct {
	groups map[string][]string
}

// Parse reads a GROUP_FILE stream into a Store.
func Parse(r io.Reader) (*Store, error) {
	scanner := bufio.NewScanner(r)
	s := &Store{groups: make(map[string][]string)}

	var currentName string
	var current []string
	flush := func() {
		if currentName != "" {
			s.groups[currentName] = current
		}
		currentName = ""
		current = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			flush()
			continue
		}
		if name, ok := headerName(trimmed); ok {
			flush()
			currentName = name
			continue
		}
		if currentName == "" {
			// Content before any [name] header: the original has no
			// notion of this since it only ever scans forward from a
			// matched header; skip rather than error, consistent with
			// lines outside any group simply never being reached.
			continue
		}
		if member := cleanMemberLine(line); member != "" {
			current = append(current, member)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, errors.New(errors.ConfigParseError, err.Error())
	}
	return s, nil
}

// ParseFile loads and parses path.
func ParseFile(path string) (*Store, error) {
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

// Members returns name's member list in file order, and whether name
// was found at all (get_group_list.c logs and returns an empty list
// either way — the bool lets a caller distinguish "empty group" from
// "no such group" without relying on a log line).
func (s *Store) Members(name string) ([]string, bool) {
	m, ok := s.groups[name]
	return m, ok
}

func headerName(trimmed string) (string, bool) {
	if len(trimmed) < 2 || trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		return "", false
	}
	return trimmed[1 : len(trimmed)-1], true
}

// cleanMemberLine reproduces get_group_list's per-character member
// scan: '#' starts a comment running to end of line, '\' escapes the
// following character literally, ' '/'\t' are dropped outright rather
// than treated as a delimiter.
func cleanMemberLine(line string) string {
	var b strings.Builder
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			if i+1 < len(runes) {
				i++
				b.WriteRune(runes[i])
			}
		case '#':
			i = len(runes)
		case ' ', '\t':
			// ignored
		default:
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}

// ExpandRecipient checks whether recipient names a GROUP_FILE group
// (prefixed with constants.MailGroupIdentifier) and, if so, returns
// its member list in place of the single recipient (spec.md §9,
// MAIL_GROUP_IDENTIFIER expansion; original_source/src/fd/
// eval_recipient.c's `p_db->user[0] == MAIL_GROUP_IDENTIFIER` check,
// here a string prefix rather than the original's single-char test).
// The second return reports whether expansion happened at all.
func (s *Store) ExpandRecipient(recipient string) ([]string, bool) {
	if !strings.HasPrefix(recipient, constants.MailGroupIdentifier) {
		return []string{recipient}, false
	}
	name := strings.TrimPrefix(recipient, constants.MailGroupIdentifier)
	members, _ := s.Members(name)
	return members, true
}
