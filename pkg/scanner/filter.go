// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Compare selects the equal/less-than/greater-than
// predicate spec.md §4.5 step 2 describes for ignore_size and
// ignore_file_time.
type Compare int

const (
	CompareEqual Compare = iota
	CompareLessThan
	CompareGreaterThan
)

// Policy bundles the per-directory scan policy: dotfile handling, the
// ignore_size/ignore_file_time predicates, and the file-mask matcher.
type Policy struct {
	AcceptDotFiles  bool
	IgnoreSize      int64
	IgnoreSizeCmp   Compare
	HasIgnoreSize   bool
	IgnoreFileTime  int64 // seconds relative to now
	IgnoreTimeCmp   Compare
	HasIgnoreTime   bool
	// Match reports whether name passes the directory's file-mask
	// dictionary (negation-first, spec.md §4.5 step 2).
	Match func(name string) bool
}

// CandidateFile is one stat'd directory entry ready for ignore/filter
// evaluation.
type CandidateFile struct {
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// ScanDir enumerates dir's regular files, applying the dotfile rule
// (spec.md §4.5 step 1).
func ScanDir(dir string, policy Policy) ([]CandidateFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]CandidateFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !policy.AcceptDotFiles && strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, CandidateFile{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return out, nil
}

// Eligible applies the ignore_size/ignore_file_time predicates and the
// file-mask matcher (spec.md §4.5 step 2): "a first positive match
// wins, a first inverse match short-circuits with skip" is
// Policy.Match's contract; Eligible only handles the ignore_* gates.
func Eligible(f CandidateFile, policy Policy, now time.Time) bool {
	if policy.HasIgnoreSize && !compareMatches(policy.IgnoreSizeCmp, f.Size, policy.IgnoreSize) {
		return false
	}
	if policy.HasIgnoreTime {
		age := int64(now.Sub(f.ModTime).Seconds())
		if !compareMatches(policy.IgnoreTimeCmp, age, policy.IgnoreFileTime) {
			return false
		}
	}
	if policy.Match != nil && !policy.Match(f.Name) {
		return false
	}
	return true
}

func compareMatches(cmp Compare, value, ref int64) bool {
	switch cmp {
	case CompareEqual:
		return value == ref
	case CompareLessThan:
		return value < ref
	case CompareGreaterThan:
		return value > ref
	default:
		return true
	}
}

// AgeLimitExceeded reports whether f is older than ageLimit seconds
// (spec.md §4.5 step 4 / §8 invariant 9: "no file older than age_limit
// is ever staged").
func AgeLimitExceeded(f CandidateFile, ageLimit int64, now time.Time) bool {
	if ageLimit <= 0 {
		return false
	}
	return now.Sub(f.ModTime) > time.Duration(ageLimit)*time.Second
}

// JoinMaskPatterns is a small convenience used by callers building a
// Policy.Match closure directly over filepath.Match without going
// through the full registry.FileMaskRegistry (the supervisor builds
// each DIR_CONFIG directory's Policy.Match with it).
func JoinMaskPatterns(patterns []string) func(name string) bool {
	return func(name string) bool {
		matched := false
		for _, p := range patterns {
			neg := strings.HasPrefix(p, "!")
			pat := p
			if neg {
				pat = p[1:]
			}
			ok, _ := filepath.Match(pat, name)
			if ok && neg {
				return false
			}
			if ok {
				matched = true
			}
		}
		return matched
	}
}
