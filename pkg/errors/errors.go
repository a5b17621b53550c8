// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

func (e *AfdError) Error() string {
	// Metadata is left out of Error() (it's for structured consumption:
	// status API, logging), except for a command's captured "stderr",
	// which is appended on its own line.
	msg := fmt.Sprintf("[%s-%d] %s", e.Domain, e.Code, e.Message)
	if e.Details != "" {
		msg += " - " + e.Details
	}
	if e.Metadata != nil {
		if stderr, ok := e.Metadata["stderr"]; ok && stderr != "" {
			msg += "\nCommand output: " + stderr
		}
	}
	return msg
}

func (e *AfdError) WithMetadata(key, value string) *AfdError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// MarshalJSON customizes JSON serialization
func (e *AfdError) MarshalJSON() ([]byte, error) {
	type Alias AfdError
	return json.Marshal(&struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias:     (*Alias)(e),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// New creates a new AfdError
func New(code ErrorCode, details string) *AfdError {
	def, ok := errorDefinitions[code]
	if !ok {
		return &AfdError{
			Code:       code,
			Domain:     "UNKNOWN",
			Message:    "Unknown error",
			Details:    details,
			HTTPStatus: http.StatusInternalServerError,
		}
	}

	return &AfdError{
		Code:       code,
		Domain:     def.domain,
		Message:    def.message,
		Details:    details,
		HTTPStatus: def.httpStatus,
	}
}

// Is implements the interface for errors.Is
func (e *AfdError) Is(target error) bool {
	if t, ok := target.(*AfdError); ok {
		return e.Code == t.Code && e.Domain == t.Domain
	}
	return false
}

// Is checks if an error matches a sentinel error
func Is(err, target error) bool {
	re, ok := err.(*AfdError)
	if !ok {
		return false
	}
	if t, ok := target.(*AfdError); ok {
		return re.Code == t.Code && re.Domain == t.Domain
	}
	return false
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode) *AfdError {
	if re, ok := err.(*AfdError); ok {
		newErr := New(code, re.Details)
		if re.Metadata != nil {
			for k, v := range re.Metadata {
				newErr.WithMetadata(k, v)
			}
		}
		newErr.WithMetadata("wrapped_code", fmt.Sprintf("%d", re.Code))
		newErr.WithMetadata("wrapped_domain", string(re.Domain))
		newErr.WithMetadata("wrapped_message", re.Message)
		return newErr
	}
	return New(code, err.Error())
}

// Unwrap implements the interface for errors.Unwrap
func (e *AfdError) Unwrap() error {
	if e.Metadata != nil {
		if originalErr, ok := e.Metadata["wrapped_error"]; ok {
			return fmt.Errorf("%s", originalErr)
		}
	}
	return nil
}

// IsAfdError checks if an error is an AfdError
func IsAfdError(err error) bool {
	_, ok := err.(*AfdError)
	return ok
}

// NewCommandError builds an AfdError describing a failed child-process run.
func NewCommandError(cmd string, exitCode int, stderr string) *AfdError {
	return New(CommandExecution, "Command execution failed").
		WithMetadata("command", cmd).
		WithMetadata("exit_code", fmt.Sprintf("%d", exitCode)).
		WithMetadata("stderr", stderr)
}

// GetCode extracts the error code from an error if it's an AfdError.
func GetCode(err error) (ErrorCode, bool) {
	if err == nil {
		return 0, false
	}
	if re, ok := err.(*AfdError); ok {
		return re.Code, true
	}
	var afdErr *AfdError
	if errors.As(err, &afdErr) {
		return afdErr.Code, true
	}
	return 0, false
}

// GetErrorWithCode returns the first AfdError in the error chain with the
// specified code, or nil.
func GetErrorWithCode(err error, code ErrorCode) *AfdError {
	if err == nil {
		return nil
	}
	if re, ok := err.(*AfdError); ok && re.Code == code {
		return re
	}
	var afdErr *AfdError
	if errors.As(err, &afdErr) && afdErr.Code == code {
		return afdErr
	}
	return nil
}
