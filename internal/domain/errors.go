package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for list operations
var (
	// ErrDuplicateName indicates a list with the same (case-insensitive) name exists
	ErrDuplicateName = errors.New("list name already exists")

	// ErrNotReady indicates a mutation was attempted while lists are loading
	ErrNotReady = errors.New("lists are still loading")

	// ErrInvalidDestination indicates a bulk move with identical source and destination
	ErrInvalidDestination = errors.New("source and destination list are the same")

	// ErrPersistenceUnavailable indicates durable storage could not be read or written
	ErrPersistenceUnavailable = errors.New("list storage is unavailable")

	// ErrListNotFound indicates the requested list does not exist
	ErrListNotFound = errors.New("list not found")

	// ErrInvalidItem indicates a catalog item without a positive id or known media kind
	ErrInvalidItem = errors.New("catalog item has no valid id or media kind")

	// ErrEmptyName indicates a list name that is blank after trimming
	ErrEmptyName = errors.New("list name is empty")
)

// DuplicateNameError carries the rejected name
type DuplicateNameError struct {
	Name     string
	Existing string // Name of the list that already holds it
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("list %q already exists", e.Existing)
}

func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}

// PersistenceError wraps a storage failure with the operation that hit it
type PersistenceError struct {
	Op  string // load, save, migrate, add, remove
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s lists: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceUnavailable
}
