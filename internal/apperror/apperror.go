// Package apperror holds the error taxonomy surfaced to the admin user.
// Every kind unwraps to its cause so callers can use errors.Is and errors.As.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrSubmitInProgress = errors.New("submit already in progress")
)

// ValidationError is a client-side input problem. Nothing remote was touched.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// StorageError is an image upload or delete failure against the object store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PersistenceError is a database write failure. The message is the backend's.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type CompressionError struct {
	Err error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("image compression failed: %v", e.Err)
}

func (e *CompressionError) Unwrap() error { return e.Err }

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	var (
		validationErr  *ValidationError
		storageErr     *StorageError
		persistenceErr *PersistenceError
		compressionErr *CompressionError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSubmitInProgress):
		return http.StatusConflict
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &compressionErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &storageErr), errors.As(err, &persistenceErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
