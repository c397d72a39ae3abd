package communitycontent

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrUnauthorized indicates the caller is not allowed to perform the operation
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation indicates malformed or missing input
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the referenced item does not exist
	ErrNotFound = errors.New("item not found")

	// ErrInvalidCredential indicates the current secret did not verify
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrStoreUnavailable indicates the backing store failed or timed out
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrConflict indicates a unique key or concurrent update conflict
	ErrConflict = errors.New("conflict")

	// ErrInvalidTransition indicates a forbidden approval state change
	ErrInvalidTransition = fmt.Errorf("%w: invalid approval transition", ErrValidation)
)

// ValidationError describes which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ItemError represents an error related to item operations
type ItemError struct {
	ItemID uuid.UUID
	Op     string
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item operation %s failed for item %s: %v", e.Op, e.ItemID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// StoreError wraps an unexpected failure of the backing store. It matches
// ErrStoreUnavailable with errors.Is; the cause is kept for logging only.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store operation %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// StoreFailure classifies an error returned by a Repository, RosterSource or
// CredentialStore. Domain errors pass through unchanged; anything else,
// including context deadlines, becomes a StoreError.
func StoreFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrValidation) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
