package repository

import (
	"fmt"
)

// StorageError is the typed failure of a single store operation. It is
// terminal for the record but never for the batch; callers decide
// whether to continue with sibling entities.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
