package repository

import "errors"

var (
	// ErrNotFound indicates an entity was not located.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateEmail indicates a user with the same email already exists.
	ErrDuplicateEmail = errors.New("repository: email already taken")
)
