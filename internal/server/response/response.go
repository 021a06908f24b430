// Package response writes the JSON envelope every API endpoint returns:
// a data field on success and an error field on failure.
package response

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/agentstation/collectionmap/pkg/errors"
)

// Error codes carried in Error.Code.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeInvalidFile      = "INVALID_FILE"
	CodeInvalidMapping   = "INVALID_MAPPING"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "PERSISTENCE_CONFLICT"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeTooLarge         = "REQUEST_TOO_LARGE"
	CodeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL_ERROR"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
)

// Response is the envelope of every API response.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error describes a failed request.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success wraps data in an envelope.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail builds an error envelope.
func Fail(code, message, details string) Response {
	return Response{Error: &Error{Code: code, Message: message, Details: details}}
}

// JSON writes resp with the given status.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent, nothing useful can be done with an encode error.
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes data with 200.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// Created writes data with 201.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Success(data))
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail(CodeBadRequest, message, details))
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail(CodeNotFound, message, details))
}

// Unauthorized writes a 401 error response.
func Unauthorized(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusUnauthorized, Fail(CodeUnauthorized, message, details))
}

// MethodNotAllowed writes a 405 error response.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	JSON(w, http.StatusMethodNotAllowed, Fail(
		CodeMethodNotAllowed,
		"Method not allowed",
		"Method "+method+" is not supported for this endpoint",
	))
}

// TooLarge writes a 413 error response.
func TooLarge(w http.ResponseWriter, details string) {
	JSON(w, http.StatusRequestEntityTooLarge, Fail(CodeTooLarge, "Request body too large", details))
}

// UnsupportedMediaType writes a 415 error response.
func UnsupportedMediaType(w http.ResponseWriter, details string) {
	JSON(w, http.StatusUnsupportedMediaType, Fail(CodeUnsupportedMedia, "Unsupported media type", details))
}

// RateLimited writes a 429 error response.
func RateLimited(w http.ResponseWriter, details string) {
	JSON(w, http.StatusTooManyRequests, Fail(CodeRateLimited, "Rate limit exceeded", details))
}

// InternalError writes a 500 error response. err is never shown to the client.
func InternalError(w http.ResponseWriter, _ error) {
	JSON(w, http.StatusInternalServerError, Fail(
		CodeInternal,
		"Internal server error",
		"An unexpected error occurred",
	))
}

// ServiceUnavailable writes a 503 error response.
func ServiceUnavailable(w http.ResponseWriter, details string) {
	JSON(w, http.StatusServiceUnavailable, Fail(CodeUnavailable, "Service unavailable", details))
}

// Status returns the HTTP status ErrorFromType would write for err.
func Status(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.IsInvalidFile(err), errors.IsInvalidMapping(err), errors.IsValidationError(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsConflict(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Code returns the error code ErrorFromType would write for err.
func Code(err error) string {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		return CodeTooLarge
	case errors.IsInvalidFile(err):
		return CodeInvalidFile
	case errors.IsInvalidMapping(err):
		return CodeInvalidMapping
	case errors.IsValidationError(err):
		return CodeBadRequest
	case errors.IsNotFound(err):
		return CodeNotFound
	case errors.IsConflict(err):
		return CodeConflict
	}
	return CodeInternal
}

// ErrorFromType maps an error kind to its response: InvalidFile and
// InvalidMapping are 400, NotFound is 404, PersistenceConflict is 409 and
// anything else is a 500 without details.
func ErrorFromType(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		TooLarge(w, err.Error())
	case errors.IsInvalidFile(err):
		JSON(w, http.StatusBadRequest, Fail(CodeInvalidFile, "Invalid file", err.Error()))
	case errors.IsInvalidMapping(err):
		JSON(w, http.StatusBadRequest, Fail(CodeInvalidMapping, "Invalid mapping", err.Error()))
	case errors.IsValidationError(err):
		BadRequest(w, "Invalid request", err.Error())
	case errors.IsNotFound(err):
		NotFound(w, "Not found", err.Error())
	case errors.IsConflict(err):
		JSON(w, http.StatusConflict, Fail(CodeConflict, "Persistence conflict", "A concurrent write won; retry the request"))
	default:
		InternalError(w, err)
	}
}
