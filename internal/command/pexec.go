// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"strings"
	"time"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/stratastor/logger"
	"github.com/stratastor/afd/pkg/errors"
)

// MaxExecFileSubstitution caps how many "%s" tokens a pexec template may
// contain (spec.md §9, "User pexec commands").
const MaxExecFileSubstitution = 10

// DefaultTransExecTimeout is used when a job doesn't override
// trans_exec_timeout.
const DefaultTransExecTimeout = 60 * time.Second

// BuildPexecArgs splits a user-supplied command template with shell-word
// semantics and substitutes up to MaxExecFileSubstitution occurrences of
// "%s" with the given substitution values, in order. It never invokes a
// shell: the template is tokenized once, so the substituted values cannot
// introduce new words or redirections.
func BuildPexecArgs(template string, substitutions ...string) ([]string, error) {
	if strings.Count(template, "%s") > MaxExecFileSubstitution {
		return nil, errors.New(errors.CommandSubstitutionOverflow, template)
	}

	words, err := shellquote.Split(template)
	if err != nil {
		return nil, errors.Wrap(err, errors.CommandInvalidInput).WithMetadata("template", template)
	}

	sub := 0
	for i, w := range words {
		if w == "%s" {
			if sub >= len(substitutions) {
				return nil, errors.New(errors.CommandInvalidInput, "not enough substitution values for %s tokens")
			}
			words[i] = substitutions[sub]
			sub++
			continue
		}
		// Also support an inline "%s" inside a larger word, e.g. "./script-%s.sh".
		if strings.Contains(w, "%s") {
			if sub >= len(substitutions) {
				return nil, errors.New(errors.CommandInvalidInput, "not enough substitution values for %s tokens")
			}
			words[i] = strings.Replace(w, "%s", substitutions[sub], 1)
			sub++
		}
	}

	return words, nil
}

// PexecResult is the outcome of RunPexec. The child's stdout and stderr
// are captured together, not as separate streams: after a non-zero exit
// status Stderr holds the combined output and Stdout is empty; in every
// other case Stdout holds the combined output and Stderr is empty.
// ExitCode is not filled in.
type PexecResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	TimedOut bool
}

// RunPexec executes a pexec template under the given timeout, killing the
// child on expiry (spec.md §5's trans_exec_timeout). It never runs
// through a shell.
func RunPexec(ctx context.Context, l logger.Logger, template string, timeout time.Duration, substitutions ...string) (*PexecResult, error) {
	args, err := BuildPexecArgs(template, substitutions...)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, errors.New(errors.CommandInvalidInput, "empty pexec template")
	}

	if timeout <= 0 {
		timeout = DefaultTransExecTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output, err := ExecCommand(cctx, l, args[0], args[1:]...)
	result := &PexecResult{Stdout: output}

	if cctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		return result, errors.New(errors.CommandTimeout, strings.Join(args, " "))
	}

	if err != nil {
		if afdErr, ok := err.(*errors.AfdError); ok {
			result.Stderr = []byte(afdErr.Metadata["output"])
			result.Stdout = bytes.TrimSuffix(result.Stdout, result.Stderr)
		}
		return result, err
	}

	return result, nil
}
