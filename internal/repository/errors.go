package repository

import (
	"errors"
	"fmt"
)

// Kind names one of the error conditions in the repository's error
// table. The CLI glue in cmd/ only ever needs Error() to print; Kind
// exists so callers (and tests) can match a specific condition
// without parsing message text.
type Kind string

const (
	KindStateNotFound             Kind = "StateNotFound"
	KindEmptyStateIndex           Kind = "EmptyStateIndex"
	KindMissingStateIndex         Kind = "MissingStateIndex"
	KindNothingToCommit           Kind = "NothingToCommit"
	KindNothingToRestore          Kind = "NothingToRestore"
	KindEmptyCommitMessage        Kind = "EmptyCommitMessage"
	KindWrongUnstagedDict         Kind = "WrongUnstagedDict"
	KindCommittingToExistingState Kind = "CommittingToExistingState"
	KindStateZeroNotDeletable     Kind = "StateZeroNotDeletable"
	KindStateAlreadyExists        Kind = "StateAlreadyExists"
	KindUnsupportedKey            Kind = "UnsupportedKey"
)

// Error is the repository package's single error type. Two further
// conditions from the original error table — CallerWrongClass and
// DataHasNoState — have no Error value here: the former is enforced
// at compile time by State's unexported methods (see state.go), and
// the latter is objects.ErrNoState, since it belongs to the object
// store rather than the repository. TransactionAlreadyStarted is
// likewise objects.ErrTransactionAlreadyStarted.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a repository.Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
