package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"club-portal/internal/model"
	"club-portal/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if errors.Is(err, model.ErrUserNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "User not found"
	} else if errors.Is(err, model.ErrUserAlreadyExists) {
		status = http.StatusConflict
		body.Code = "CONFLICT"
		body.Message = "User already exists"
	} else if errors.Is(err, model.ErrInvalidCredentials) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid credentials"
	} else if errors.Is(err, model.ErrMissingCredential) {
		status = http.StatusUnauthorized
		body.Code = "MISSING_CREDENTIAL"
		body.Message = "Authentication required"
	} else if errors.Is(err, model.ErrTokenExpired) {
		status = http.StatusUnauthorized
		body.Code = "TOKEN_EXPIRED"
		body.Message = "Token has expired"
	} else if errors.Is(err, model.ErrTokenInvalid) {
		status = http.StatusUnauthorized
		body.Code = "TOKEN_INVALID"
		body.Message = "Token is invalid"
	} else if errors.Is(err, model.ErrUnauthorized) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Authentication required"
	} else if errors.Is(err, model.ErrForbidden) {
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "Access denied"
	} else if errors.Is(err, model.ErrOpenIDAlreadyBound) {
		status = http.StatusConflict
		body.Code = "CONFLICT"
		body.Message = "WeChat identity already bound"
	} else if errors.Is(err, model.ErrExternalAuth) {
		status = http.StatusBadGateway
		body.Code = "EXTERNAL_AUTH"
		body.Message = "External login failed, please try again"
	} else if errors.Is(err, model.ErrPostNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Post not found"
	} else if errors.Is(err, model.ErrEventNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Event not found"
	} else if errors.Is(err, model.ErrAlreadyAttending) {
		status = http.StatusConflict
		body.Code = "CONFLICT"
		body.Message = "Already attending this event"
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = "VALIDATION"
		body.Message = "Invalid input"
	} else {
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}
