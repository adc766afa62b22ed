package service

import "errors"

var (
	// ErrDataUnavailable means the question set or answer key could not be read.
	ErrDataUnavailable = errors.New("question data unavailable")
	// ErrPersistence means a graded result could not be stored.
	ErrPersistence = errors.New("result could not be stored")

	ErrNotFound             = errors.New("resource not found")
	ErrConfirmationMismatch = errors.New("confirmation email does not match")
	ErrInvalidCredentials   = errors.New("invalid credentials")
)
