package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token related errors
	ErrMissingCredential = errors.New("missing credential")
	ErrTokenInvalid      = errors.New("token invalid")
	ErrTokenExpired      = errors.New("token expired")

	// Linking related errors
	ErrOpenIDAlreadyBound = errors.New("wechat identity already bound")
	ErrExternalAuth       = errors.New("external auth failed")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Content related errors
	ErrPostNotFound     = errors.New("post not found")
	ErrEventNotFound    = errors.New("event not found")
	ErrAlreadyAttending = errors.New("already attending event")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
