package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrValidation indicates the request was well-formed but semantically invalid.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden indicates the caller may not act on the entity.
	ErrForbidden = errors.New("forbidden")
)
