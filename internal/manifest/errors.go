package manifest

import (
	"errors"
	"fmt"
)

// ReconcileError represents a contract violation detected by the engine.
//
// The engine is a deterministic transform: every failure means either the
// caller broke a contract (inconsistent harness data, duplicate identity)
// or looked up an identity that was never registered. Nothing is retried.
type ReconcileError struct {
	// Code identifies the error category.
	Code ReconcileErrorCode

	// Message is a human-readable description.
	Message string

	// TestID identifies the affected test, if known.
	TestID TestID

	// Subtest names the affected subtest, if any.
	Subtest string

	// Details contains additional context.
	Details map[string]string
}

// ReconcileErrorCode categorizes reconciliation errors.
type ReconcileErrorCode string

const (
	// ErrCodeInconsistentDefault indicates two results for one node implied
	// different default statuses. Fatal: harness data must agree on what
	// "no override" means for a given test type.
	ErrCodeInconsistentDefault ReconcileErrorCode = "INCONSISTENT_DEFAULT"

	// ErrCodeDuplicateIdentity indicates two children registered under the
	// same test identity within one file. Fatal: upstream parsing or
	// construction bug.
	ErrCodeDuplicateIdentity ReconcileErrorCode = "DUPLICATE_IDENTITY"

	// ErrCodeUnknownTest indicates a lookup of an identity not present in
	// the tree. Recoverable: callers create the node instead.
	ErrCodeUnknownTest ReconcileErrorCode = "UNKNOWN_TEST"
)

// Error implements the error interface.
func (e *ReconcileError) Error() string {
	if e.Subtest != "" {
		return fmt.Sprintf("%s: %s (test=%s, subtest=%q)", e.Code, e.Message, e.TestID, e.Subtest)
	}
	if !e.TestID.IsZero() {
		return fmt.Sprintf("%s: %s (test=%s)", e.Code, e.Message, e.TestID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInconsistentDefault returns true if the error is an inconsistent-default
// violation. Uses errors.As to handle wrapped errors.
func IsInconsistentDefault(err error) bool {
	var re *ReconcileError
	return errors.As(err, &re) && re.Code == ErrCodeInconsistentDefault
}

// IsDuplicateIdentity returns true if the error is a duplicate-identity
// violation. Uses errors.As to handle wrapped errors.
func IsDuplicateIdentity(err error) bool {
	var re *ReconcileError
	return errors.As(err, &re) && re.Code == ErrCodeDuplicateIdentity
}

// IsUnknownTest returns true if the error is an unknown-identity lookup.
// Uses errors.As to handle wrapped errors.
func IsUnknownTest(err error) bool {
	var re *ReconcileError
	return errors.As(err, &re) && re.Code == ErrCodeUnknownTest
}

// newInconsistentDefaultError reports disagreeing default statuses for one node.
func newInconsistentDefaultError(id TestID, subtest, have, got string) *ReconcileError {
	return &ReconcileError{
		Code:    ErrCodeInconsistentDefault,
		Message: "results disagree on the default status for this test",
		TestID:  id,
		Subtest: subtest,
		Details: map[string]string{
			"recorded": have,
			"observed": got,
		},
	}
}

// newDuplicateIdentityError reports a second registration of one identity.
func newDuplicateIdentityError(id TestID) *ReconcileError {
	return &ReconcileError{
		Code:    ErrCodeDuplicateIdentity,
		Message: "a test with this identity is already registered",
		TestID:  id,
	}
}

// newUnknownTestError reports a lookup of an unregistered identity.
func newUnknownTestError(id TestID) *ReconcileError {
	return &ReconcileError{
		Code:    ErrCodeUnknownTest,
		Message: "no test with this identity in the table",
		TestID:  id,
	}
}
