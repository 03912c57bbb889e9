package domain

import "errors"

var (
	// ErrUnauthorized signals a missing or invalid session.
	ErrUnauthorized = errors.New("account: unauthorized")
	// ErrUserNotFound signals the session points at a user row that does not exist.
	ErrUserNotFound = errors.New("account: user not found")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("account: email already registered")
	// ErrInvalidPayload indicates a request body that could not be used.
	ErrInvalidPayload = errors.New("account: invalid payload")
)
