/*
Copyright 2025 The optiserve Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a solve-pipeline failure. The kind determines how
// the failure is surfaced at the transport layer and whether a client
// retry can be meaningful.
type ErrorKind string

const (
	// KindMalformedInput means the client payload could not be translated
	// into a canonical model (duplicate variables, undeclared references,
	// unknown operators). Client error, never retried.
	KindMalformedInput ErrorKind = "MalformedInput"

	// KindInvalidModel means the model parsed but is semantically
	// inconsistent (empty variable set, crossed bounds, binary bounds
	// outside [0,1]). Client error, never retried.
	KindInvalidModel ErrorKind = "InvalidModel"

	// KindProblemTooLarge means the model exceeds the configured size
	// ceiling. Client error; the client may retry with a smaller problem.
	KindProblemTooLarge ErrorKind = "ProblemTooLarge"

	// KindSolverUnavailable means the solver process could not be
	// launched (missing binary, permission failure). Fatal for the
	// request, non-retryable.
	KindSolverUnavailable ErrorKind = "SolverUnavailable"

	// KindSolverTimeout means the time budget was exhausted before a
	// definitive outcome. Indicates resource pressure or problem
	// difficulty, not a defect; a client retry with a larger budget is
	// legitimate.
	KindSolverTimeout ErrorKind = "SolverTimeout"

	// KindSolverError means the solver produced malformed output or an
	// unexpected status. Always a bug-indicating condition; the raw
	// output is logged for diagnosis.
	KindSolverError ErrorKind = "SolverError"

	// KindServiceBusy means the concurrency ceiling was reached and the
	// solve was rejected rather than queued unboundedly.
	KindServiceBusy ErrorKind = "ServiceBusy"
)

// IsClientError reports whether the kind represents a defect in the
// client-supplied problem rather than a service-side failure.
func (k ErrorKind) IsClientError() bool {
	switch k {
	case KindMalformedInput, KindInvalidModel, KindProblemTooLarge:
		return true
	}
	return false
}

// Error is a classified solve-pipeline failure.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Detail is a human-readable description safe to surface to clients
	// for client-error kinds.
	Detail string

	cause error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// NewError creates a classified error with a formatted detail message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// WrapError creates a classified error wrapping an underlying cause.
func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the ErrorKind of err. Unclassified errors report
// KindSolverError so that unknown failures are never mistaken for
// client mistakes.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindSolverError
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}
