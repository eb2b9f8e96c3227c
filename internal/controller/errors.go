package controller

import "errors"

// ErrNoSession indicates an operation that needs a logged-in user was called
// without one.
var ErrNoSession = errors.New("no active session")

// ErrNotAdmin indicates an admin console operation was attempted by a
// regular account.
var ErrNotAdmin = errors.New("admin role required")
