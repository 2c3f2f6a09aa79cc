/*
Package ledger is the business-logic layer sitting between the HTTP/batch
boundaries and store.Store: it owns client auto-creation, balance
arithmetic, dispute lifecycle rules, and the bounded retry loop that turns
store-level Contention into a clean success or a final sanitized error.

KEY CONCEPTS IN THIS FILE (errors.go):
  - SanitizedError: the only error shape that ever crosses out of this
    package. Every lower-layer error (store, serialization, backend
    transport) is sanitized into one of a fixed, small set of kinds before
    it reaches a caller.
  - sanitize: the chokepoint every exported Session method runs its result
    through. Contention is deliberately not logged — it is an expected,
    retried condition, not a fault.

SEE ALSO:
  - session.go: App / Session / DetachedSession
  - process.go: the 3-attempt retry loop that is this package's core
*/
package ledger

import (
	"errors"
	"fmt"
	"log"

	"github.com/dskart/payment-engine/store"
)

// Kind is the fixed set of sanitized error categories a caller can branch
// on; the api package maps each to an HTTP status.
type Kind int

const (
	KindUnauthorized Kind = iota
	KindNotFound
	KindContention
	KindInternalError
	KindIncorrectRevisionNumber
	KindUserError
)

// SanitizedError is the only error type exported across the ledger
// boundary. Message is always safe to show a caller; it never repeats an
// internal cause's text for InternalError (the cause is logged, not
// returned).
type SanitizedError struct {
	Kind    Kind
	Message string
}

func (e *SanitizedError) Error() string {
	return e.Message
}

func newUserError(format string, args ...any) *SanitizedError {
	return &SanitizedError{Kind: KindUserError, Message: fmt.Sprintf(format, args...)}
}

func newNotFoundError(message string) *SanitizedError {
	return &SanitizedError{Kind: KindNotFound, Message: message}
}

var errContentionSanitized = &SanitizedError{Kind: KindContention, Message: "operation failed due to contention, please try again"}

var errInternal = &SanitizedError{Kind: KindInternalError, Message: "an internal error has occurred"}

// IsContention reports whether err is the sanitized Contention kind, the
// one kind process's retry loop acts on.
func IsContention(err error) bool {
	var se *SanitizedError
	if errors.As(err, &se) {
		return se.Kind == KindContention
	}
	return false
}

// IsUserError reports whether err is a client-caused UserError, the one
// kind a batch import logs and skips rather than aborting on.
func IsUserError(err error) bool {
	var se *SanitizedError
	if errors.As(err, &se) {
		return se.Kind == KindUserError
	}
	return false
}

// sanitize turns a store/internal error into a SanitizedError. Contention
// is returned unlogged, since the retry loop treats it as routine; every
// other non-nil error is logged with its real cause before a generic
// message replaces it.
func sanitize(logger *log.Logger, err error) error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*SanitizedError); ok {
		return se
	}
	if errors.Is(err, store.ErrContention) {
		return errContentionSanitized
	}
	if logger != nil {
		logger.Printf("internal error: %s", err)
	}
	return errInternal
}
