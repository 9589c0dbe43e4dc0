package iot

import "fmt"

// AuthorizationError means the meter code is unknown or the pin does not
// match. The two cases are deliberately indistinguishable to callers.
type AuthorizationError struct {
	MeterCode string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("meter %q: unknown meter or wrong pin", e.MeterCode)
}

// StorageError wraps a failed database operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
