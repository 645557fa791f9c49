package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures for the SSE error event and the
// recovery policy. Kinds are part of the external contract.
type ErrorKind string

const (
	// KindUpstream is a transient LLM or embedding failure that survived
	// all retries.
	KindUpstream ErrorKind = "upstream"
	// KindSchema means model output did not match the declared shape.
	KindSchema ErrorKind = "schema"
	// KindRetrieval is a document-store failure or a partial fan-out
	// failure during retrieval.
	KindRetrieval ErrorKind = "retrieval"
	// KindTimeout is a per-call or per-request deadline exceeded.
	KindTimeout ErrorKind = "timeout"
	// KindNotFound is an unknown history id.
	KindNotFound ErrorKind = "not_found"
	// KindInvariant is an internal invariant violation.
	KindInvariant ErrorKind = "invariant"
	// KindCancelled is a client cancellation observed mid-request.
	KindCancelled ErrorKind = "cancelled"
	// KindInternal is the fallback for unclassified failures.
	KindInternal ErrorKind = "internal"
)

// PipelineError carries an ErrorKind alongside a message and optional
// cause. All stage failures surface as this type.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NewError builds a PipelineError of the given kind.
func NewError(kind ErrorKind, message string, cause error) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the ErrorKind from err, walking the wrap chain.
// Unclassified errors report KindInternal.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
