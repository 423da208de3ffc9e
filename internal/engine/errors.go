package engine

import (
	"errors"
	"fmt"

	"github.com/bianoble/modsync/internal/toolchain"
)

// Kind classifies how a reconciliation ended early.
type Kind string

const (
	// KindNoLockfile: the lockfile does not exist; nothing to do.
	KindNoLockfile Kind = "NO_LOCKFILE"
	// KindNoEffectiveChange: the toolchain left the lockfile as it was.
	KindNoEffectiveChange Kind = "NO_EFFECTIVE_CHANGE"
	// KindToolchainFailure: a toolchain step or its setup failed.
	KindToolchainFailure Kind = "TOOLCHAIN_FAILURE"
	// KindReconciliationFailure: the status query or reading results failed.
	KindReconciliationFailure Kind = "RECONCILIATION_FAILURE"
)

// Sentinels for errors.Is.
var (
	ErrNoLockfile            = &Error{Kind: KindNoLockfile}
	ErrNoEffectiveChange     = &Error{Kind: KindNoEffectiveChange}
	ErrToolchainFailure      = &Error{Kind: KindToolchainFailure}
	ErrReconciliationFailure = &Error{Kind: KindReconciliationFailure}
)

// Error is a classified reconciliation error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return fmt.Sprintf("[%s]", e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("[%s] %s", e.Kind, e.Op)
	case e.Op == "":
		return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// IsNoop reports whether the kind ends a request successfully with no result.
func (k Kind) IsNoop() bool {
	return k == KindNoLockfile || k == KindNoEffectiveChange
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func toolchainFailure(op string, err error) error {
	return &Error{Kind: KindToolchainFailure, Op: op, Err: err}
}

func reconciliationFailure(op string, err error) error {
	return &Error{Kind: KindReconciliationFailure, Op: op, Err: err}
}

// failureMessage returns the text surfaced in an ArtifactError. Toolchain
// failures report their captured stderr verbatim.
func failureMessage(err error) string {
	var tcErr *toolchain.Error
	if errors.As(err, &tcErr) {
		return tcErr.Message()
	}
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}
