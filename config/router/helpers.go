package router

import (
	"net/http"
	"strings"

	"github.com/akeren/waitlist-foundry/internal/log"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"github.com/google/uuid"
)

// GetLogger returns the request-scoped logger injected by the router, or a
// fresh correlated one for contexts that never went through it.
func GetLogger(ctx *RequestContext) *log.Logger {
	return log.GetLoggerInstanceFromContext(ctx.Request.Context(), nil)
}

func ErrorResult(statusCode int, message string, data any) *ServiceResult {
	return &ServiceResult{StatusCode: statusCode, Data: data, Message: message}
}

func OKResult(data any, message string) *ServiceResult {
	return &ServiceResult{StatusCode: http.StatusOK, Data: data, Message: message}
}

func CreatedResult(data any, message string) *ServiceResult {
	return &ServiceResult{StatusCode: http.StatusCreated, Data: data, Message: message}
}

func BadRequestResult(message string, payload any) *ServiceResult {
	return ErrorResult(http.StatusBadRequest, message, payload)
}

func UnauthorizedResult(message string) *ServiceResult {
	return ErrorResult(http.StatusUnauthorized, message, nil)
}

func NotFoundResult(message string) *ServiceResult {
	return ErrorResult(http.StatusNotFound, message, nil)
}

func TooManyRequestsResult(data RateLimitResponse) *ServiceResult {
	return ErrorResult(http.StatusTooManyRequests, "Trop de requêtes, réessayez plus tard", data)
}

// AttachmentResult answers 200 with a raw download instead of the JSON envelope.
func AttachmentResult(fileName, contentType string, body []byte) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusOK,
		Attachment: &Attachment{FileName: fileName, ContentType: contentType, Body: body},
	}
}

// AppErrorResult maps an error from the service layer to its HTTP result,
// hiding internal details behind the generic message.
func AppErrorResult(err error) *ServiceResult {
	return ErrorResult(apperrors.HTTPStatusCode(err), apperrors.GetHumanReadableMessage(err), nil)
}

// BindErrorResult turns a gin binding error into a 400 with per-field details.
func BindErrorResult(err error, req any, message string) *ServiceResult {
	if details := apperrors.FormatValidationErrors(err, req); len(details) > 0 {
		return BadRequestResult(message, details)
	}
	return BadRequestResult(message, nil)
}

// ParseUUIDParam reads a path parameter that must be a UUID. Malformed ids
// answer notFoundMessage: an id that cannot exist is simply not found.
func ParseUUIDParam(ctx *RequestContext, paramName, notFoundMessage string) (string, *ServiceResult) {
	raw := strings.TrimSpace(ctx.Param(paramName))

	id, err := uuid.Parse(raw)
	if err != nil {
		GetLogger(ctx).Debug("Rejected non-UUID path parameter", "param", paramName, "value", raw)
		return "", NotFoundResult(notFoundMessage)
	}
	return id.String(), nil
}
