// Package errors carries the typed application error every layer returns to
// the HTTP boundary, and the mapping from its type to a status and a
// client-safe message.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

const (
	ErrorTypeDatabaseError       = "DATABASE_ERROR"
	ErrorTypeNotFound            = "NOT_FOUND"
	ErrorTypeInvalidRequest      = "INVALID_REQUEST"
	ErrorTypeUnauthorized        = "UNAUTHORIZED"
	ErrorTypeForbidden           = "FORBIDDEN"
	ErrorTypeConflict            = "CONFLICT"
	ErrorTypeStorageError        = "STORAGE_ERROR"
	ErrorTypeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrorTypeUnknown             = "UNKNOWN_ERROR"
)

// AppError pairs a client-safe Message with the underlying cause, which only
// ever reaches the logs.
type AppError struct {
	Type    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Type + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(errType, message string, err error) *AppError {
	return &AppError{Type: errType, Message: message, Err: err}
}

func NewNotFoundError(message string, err error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, err)
}

func NewInvalidRequestError(message string, err error) *AppError {
	return NewAppError(ErrorTypeInvalidRequest, message, err)
}

func NewConflictError(message string, err error) *AppError {
	return NewAppError(ErrorTypeConflict, message, err)
}

func NewUnauthorizedError(message string, err error) *AppError {
	return NewAppError(ErrorTypeUnauthorized, message, err)
}

func NewForbiddenError(message string, err error) *AppError {
	return NewAppError(ErrorTypeForbidden, message, err)
}

func NewDatabaseError(message string, err error) *AppError {
	return NewAppError(ErrorTypeDatabaseError, message, err)
}

func NewStorageError(message string, err error) *AppError {
	return NewAppError(ErrorTypeStorageError, message, err)
}

func NewInternalServerError(message string, err error) *AppError {
	return NewAppError(ErrorTypeInternalServerError, message, err)
}

// GetErrorType returns the type of the first AppError in err's chain,
// ErrorTypeUnknown for foreign errors and "" for nil.
func GetErrorType(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

func IsType(err error, errType string) bool {
	return err != nil && GetErrorType(err) == errType
}

// Lower-cased fragments of unique-violation messages from pgx and go-sqlite3.
var duplicateKeyMarkers = []string{
	"duplicate key",
	"unique constraint",
	"sqlstate 23505",
}

// IsDuplicateKeyError recognises unique-index violations that reach us as raw
// driver errors, as well as conflicts already typed by a repository.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if IsType(err, ErrorTypeConflict) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range duplicateKeyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
