// Package orcherr defines the shared error taxonomy used across the
// orchestration core.
package orcherr

import "fmt"

// Kind classifies an orchestration error into one of a closed set of
// categories so callers can branch on failure mode without string
// matching.
type Kind string

const (
	KindNotFound        Kind = "not_found"         // agent definition, step, or assignment missing
	KindPermissionDenied Kind = "permission_denied" // tool call rejected by a ToolPermissions check
	KindBudgetExceeded  Kind = "budget_exceeded"    // token budget would be exceeded
	KindInvalidPlan     Kind = "invalid_plan"       // plan has a cycle or dangling dependency
	KindTimeout         Kind = "timeout"            // a deadline elapsed
	KindCancelled       Kind = "cancelled"          // a cancellation signal was observed
	KindIO              Kind = "io"                 // filesystem or storage failure
	KindInvalidInput    Kind = "invalid_input"      // malformed YAML, bad config, bad parameters
	KindUpstream        Kind = "upstream"           // the LLM client reported an error event
)

// Error is the concrete error type returned by every package in this
// module. It carries a Kind for programmatic branching, a human-readable
// Message, and an optional wrapped Cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var oe *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			oe = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return oe != nil && oe.Kind == kind
}
