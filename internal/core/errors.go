package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation references an id that is not
	// in the collection. No mutation happens.
	ErrNotFound = errors.New("record not found")

	// ErrPersistence is returned when a durable write did not complete. The
	// in-memory change that preceded it has been rolled back.
	ErrPersistence = errors.New("persistence failure")

	// ErrDuplicatePhone is returned when a manual add or edit would make two
	// numbers share the same normalized phone number.
	ErrDuplicatePhone = errors.New("phone number already exists")

	// ErrPersonInUse is returned when deleting a person that numbers are
	// still assigned to, without asking for them to be released.
	ErrPersonInUse = errors.New("person still has assigned numbers")

	// ErrBlobNotFound is returned by a Blobs backend when a key has never
	// been written.
	ErrBlobNotFound = errors.New("blob not found")
)

// PersistenceError reports which collection failed to save.
type PersistenceError struct {
	Collection Collection
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: save %s: %v", e.Collection, e.Err)
}

// Is makes errors.Is(err, ErrPersistence) match any PersistenceError.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// notFound wraps ErrNotFound with the collection and id.
func notFound(c Collection, id int64) error {
	return fmt.Errorf("%s id %d: %w", c, id, ErrNotFound)
}
