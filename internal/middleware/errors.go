package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"club-portal/internal/model"
	"club-portal/pkg/apierror"
)

// writeAuthError renders gate failures without pulling in the handler
// package. Token sentinels get distinct codes so clients can tell "refresh"
// from "log in again".
func writeAuthError(w http.ResponseWriter, err error) {
	status := http.StatusUnauthorized
	body := &model.APIError{Code: "UNAUTHORIZED", Message: "Authentication required"}

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	case errors.Is(err, model.ErrTokenExpired):
		body.Code = "TOKEN_EXPIRED"
		body.Message = "Token has expired"
	case errors.Is(err, model.ErrTokenInvalid):
		body.Code = "TOKEN_INVALID"
		body.Message = "Token is invalid"
	case errors.Is(err, model.ErrPostNotFound), errors.Is(err, model.ErrEventNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Resource not found"
	default:
		status = http.StatusInternalServerError
		body.Code = "INTERNAL_ERROR"
		body.Message = "Unexpected server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{Success: false, Error: body})
}
