package userstore

import "errors"

var (
	// ErrNotFound is returned by mutating operations on a missing user.
	// Lookups report absence through their bool result instead.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateUsername is returned when the username is already taken.
	ErrDuplicateUsername = errors.New("username already taken")
)
