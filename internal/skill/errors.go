package skill

import (
	"errors"
	"fmt"
)

// Kind classifies a skill subsystem failure. Transport layers map kinds
// onto their own error surfaces (HTTP status, JSON-RPC error, CLI exit
// code) without inspecting messages.
type Kind string

const (
	// Parse-time kinds. During a scan these are recorded as warnings
	// and the offending skill directory is skipped.
	KindMalformedDescriptor Kind = "malformed_descriptor"
	KindInvalidIdentifier   Kind = "invalid_identifier"
	KindIdentifierMismatch  Kind = "identifier_mismatch"
	KindInvalidDescription  Kind = "invalid_description"

	// Request-time kinds. Each fails the single call that triggered it.
	KindSkillNotFound    Kind = "skill_not_found"
	KindScriptNotFound   Kind = "script_not_found"
	KindResourceNotFound Kind = "resource_not_found"
	KindPathEscape       Kind = "path_escape"

	// Execution-time kinds.
	KindExecutionTimeout Kind = "execution_timeout"
	KindExecutionFailed  Kind = "execution_failed"
	KindMalformedOutput  Kind = "malformed_output"
	KindExecutorBusy     Kind = "executor_busy"
)

// Error is a classified skill subsystem error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds a classified error with a formatted message.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapErr builds a classified error around an underlying cause.
func WrapErr(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind carried by err, or "" for unclassified errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
