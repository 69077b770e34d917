package errors

import (
	"errors"
	"net/http"
)

// GenericErrorMessage is shown for every failure whose details must stay server-side.
const GenericErrorMessage = "Erreur serveur"

// statusByType lists the client errors. Conflicts (slug taken, duplicate
// subscription) are reported as plain 400s.
var statusByType = map[string]int{
	ErrorTypeNotFound:       http.StatusNotFound,
	ErrorTypeInvalidRequest: http.StatusBadRequest,
	ErrorTypeConflict:       http.StatusBadRequest,
	ErrorTypeUnauthorized:   http.StatusUnauthorized,
	ErrorTypeForbidden:      http.StatusForbidden,
}

// HTTPStatusCode maps an error to the status returned by handlers. Anything
// untyped is a 500.
func HTTPStatusCode(err error) int {
	if status, ok := statusByType[GetErrorType(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// GetHumanReadableMessage returns the AppError message for client errors and
// GenericErrorMessage for everything that would leak internals.
func GetHumanReadableMessage(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return GenericErrorMessage
	}

	if _, clientError := statusByType[appErr.Type]; !clientError {
		return GenericErrorMessage
	}
	return appErr.Message
}
