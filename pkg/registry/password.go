// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"fmt"
	"sync"

	"github.com/stratastor/afd/pkg/errors"
)

// MaxUserNameLength bounds both a uh_name (user@host) and an obfuscated
// password (original_source/src/tools/set_pw.c, MAX_USER_NAME_LENGTH).
const MaxUserNameLength = 80

// Obfuscate applies the position-dependent additive transform set_pw.c
// uses when it first reads a password from the terminal: even positions
// shift by -24+i, odd positions by -11+i. It is not cryptography — the
// shared area is process-wide readable by AFD only, and spec.md's
// Non-goals explicitly exclude "in-process cryptographic key management
// beyond a local obfuscated password store".
func Obfuscate(plain string) ([]byte, error) {
	if len(plain) > MaxUserNameLength {
		return nil, errors.New(errors.RegistryPasswordTooLong, plain)
	}
	out := make([]byte, len(plain))
	for i := 0; i < len(plain); i++ {
		if i%2 == 0 {
			out[i] = byte(int(plain[i]) - 24 + i)
		} else {
			out[i] = byte(int(plain[i]) - 11 + i)
		}
	}
	return out, nil
}

// Deobfuscate reverses Obfuscate.
func Deobfuscate(obfuscated []byte) string {
	out := make([]byte, len(obfuscated))
	for i, b := range obfuscated {
		if i%2 == 0 {
			out[i] = byte(int(b) + 24 - i)
		} else {
			out[i] = byte(int(b) + 11 - i)
		}
	}
	return string(out)
}

// PasswordEntry is one PWB_DATA_FILE record (spec.md §3, "Password
// record"): the user@host composite name, the obfuscated bytes, and a
// duplicate-check flag set_pw uses to refuse silently overwriting an
// existing entry for the same composite name unless -s is given.
type PasswordEntry struct {
	UserHost    string
	Obfuscated  []byte
	DupCheck    bool
}

// PasswordStore is the in-memory mirror of PWB_DATA_FILE. Entries are
// small and few relative to FSA/FRA, so unlike JIDRegistry it is kept
// as a simple mutex-guarded slice rather than riding sharedarea.Area —
// there is no fixed-size entry to speak of once the password itself is
// variable length.
type PasswordStore struct {
	mu      sync.RWMutex
	entries []PasswordEntry
}

// NewPasswordStore returns an empty store. The store lives in memory
// only; nothing in this package reads or writes PWB_DATA_FILE.
func NewPasswordStore() *PasswordStore {
	return &PasswordStore{}
}

// Set inserts or replaces the password for userHost. allowOverwrite
// mirrors set_pw -s; without it, Set refuses to replace an existing
// dup-checked entry.
func (p *PasswordStore) Set(userHost, plain string, allowOverwrite bool) error {
	obf, err := Obfuscate(plain)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for i, e := range p.entries {
		if e.UserHost == userHost {
			if e.DupCheck && !allowOverwrite {
				return errors.New(errors.RegistryDuplicateEntry, userHost)
			}
			p.entries[i].Obfuscated = obf
			p.entries[i].DupCheck = true
			return nil
		}
	}

	p.entries = append(p.entries, PasswordEntry{UserHost: userHost, Obfuscated: obf, DupCheck: true})
	return nil
}

// Lookup returns the plaintext password for userHost, resolved the way
// set_pw -c requires: the url must already be reachable from JID+DNB
// (checked by the caller before invoking Lookup).
func (p *PasswordStore) Lookup(userHost string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, e := range p.entries {
		if e.UserHost == userHost {
			return Deobfuscate(e.Obfuscated), nil
		}
	}
	return "", errors.New(errors.RegistryPasswordNotFound, userHost)
}

// Entries returns a snapshot of the store.
func (p *PasswordStore) Entries() []PasswordEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PasswordEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

func (p PasswordEntry) String() string {
	return fmt.Sprintf("%s (%d bytes obfuscated)", p.UserHost, len(p.Obfuscated))
}
