// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package auth implements the ambient permission checks every
// privileged tool invocation consults before mutating shared state
// (spec.md §6 "etc/afd.users — permission lines" and §8 "Permission
// denied from afd.users"), grounded on
// original_source/src/common/get_permissions.c, plus an optional
// LDAP-backed group lookup layered on top
// (original_source doesn't have this — it's this repo's own
// [EXPANSION], modeled on the teacher's pkg/ad LDAP client).
package auth

import (
	"bufio"
	"os"
	"strings"

	"github.com/stratastor/afd/pkg/errors"
)

// Outcome classifies how a Permissions lookup resolved, mirroring
// get_permissions.c's SUCCESS/NONE/NO_ACCESS/INCORRECT return values.
type Outcome int

const (
	// Granted means user was found in the file and Tokens holds their
	// permission list (possibly empty).
	Granted Outcome = iota
	// NotFound means the file parsed fine but user has no entry —
	// get_permissions.c's NONE.
	NotFound
	// NoAccess means the file exists but couldn't be read (a
	// permissions problem on the file itself) — treated as deny-all,
	// never as allow-all.
	NoAccess
	// AllowAll means no afd.users file exists at all, so every
	// operation is permitted — get_permissions.c's documented
	// "if there is no AFD_USER_FILE ... let's allow everything".
	AllowAll
)

// Permissions looks up user's permission tokens in the afd.users file
// at path. A user's entry is one logical line: the username, then
// whitespace-separated tokens running to end of line; a continuation
// line (one starting with a space or tab) extends the previous line's
// token list, the same folding get_permissions.c's trailing-whitespace
// scan performs.
func Permissions(path, user string) ([]string, Outcome, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, AllowAll, nil
		}
		if os.IsPermission(err) {
			return nil, NoAccess, nil
		}
		return nil, NotFound, errors.New(errors.AuthUsersFileInvalid, err.Error()).
			WithMetadata("path", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var tokens []string
	found := false
	matched := false
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if found {
				tokens = append(tokens, strings.Fields(line)...)
			}
			continue
		}
		if matched {
			// The first matching entry (and its continuation lines) is
			// authoritative, the same first-match behavior
			// get_permissions.c's single forward scan produces.
			break
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == user {
			found = true
			matched = true
			tokens = append([]string(nil), fields[1:]...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, NotFound, errors.New(errors.AuthUsersFileInvalid, err.Error()).
			WithMetadata("path", path)
	}

	if !found {
		return nil, NotFound, nil
	}
	return tokens, Granted, nil
}

// Has reports whether token appears in tokens, the check every tool
// performs after a Granted Permissions lookup.
func Has(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}
