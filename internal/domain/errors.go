package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures for exit-code and messaging purposes.
type ErrorKind string

const (
	KindPrecondition   ErrorKind = "precondition"
	KindRefConflict    ErrorKind = "ref_conflict"
	KindAuthentication ErrorKind = "authentication"
	KindGitOperation   ErrorKind = "git_operation"
	KindNetwork        ErrorKind = "network"
)

// ReleaseError carries the failure kind and the checkpoint that produced it.
// Every error is fatal to the invocation; there is no partial-success mode.
type ReleaseError struct {
	Kind       ErrorKind
	Checkpoint string
	Err        error
}

func (e *ReleaseError) Error() string {
	if e.Checkpoint == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s failed (%s): %v", e.Checkpoint, e.Kind, e.Err)
}

func (e *ReleaseError) Unwrap() error {
	return e.Err
}

// NewReleaseError wraps err with a kind and the checkpoint it surfaced from.
func NewReleaseError(kind ErrorKind, checkpoint string, err error) *ReleaseError {
	return &ReleaseError{Kind: kind, Checkpoint: checkpoint, Err: err}
}

// PreconditionError reports a violated pre-flight invariant.
func PreconditionError(checkpoint string, err error) *ReleaseError {
	return NewReleaseError(KindPrecondition, checkpoint, err)
}

// RefConflictError reports a ref (tag) that already exists.
func RefConflictError(checkpoint string, err error) *ReleaseError {
	return NewReleaseError(KindRefConflict, checkpoint, err)
}

// AuthenticationError reports rejected remote credentials.
func AuthenticationError(checkpoint string, err error) *ReleaseError {
	return NewReleaseError(KindAuthentication, checkpoint, err)
}

// GitOperationError reports an unexpected version-control failure.
func GitOperationError(checkpoint string, err error) *ReleaseError {
	return NewReleaseError(KindGitOperation, checkpoint, err)
}

// NetworkError reports a connectivity failure during a remote operation.
func NetworkError(checkpoint string, err error) *ReleaseError {
	return NewReleaseError(KindNetwork, checkpoint, err)
}

// IsKind reports whether err (or anything it wraps) is a ReleaseError of
// the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var relErr *ReleaseError
	if errors.As(err, &relErr) {
		return relErr.Kind == kind
	}
	return false
}
