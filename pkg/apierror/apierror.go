package apierror

import (
	"fmt"
	"net/http"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

func Validation(message string, field string) *APIError {
	return New("VALIDATION", message, field, http.StatusBadRequest)
}

func Conflict(message string, field string) *APIError {
	return New("CONFLICT", message, field, http.StatusConflict)
}

func Unauthorized(message string) *APIError {
	return New("UNAUTHORIZED", message, "", http.StatusUnauthorized)
}

func Forbidden(message string) *APIError {
	return New("FORBIDDEN", message, "", http.StatusForbidden)
}

func NotFound(message string, details string) *APIError {
	return New("NOT_FOUND", message, details, http.StatusNotFound)
}

func ExternalAuth(message string, details string) *APIError {
	return New("EXTERNAL_AUTH", message, details, http.StatusBadGateway)
}
