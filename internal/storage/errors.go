package storage

import "errors"

// Sentinel errors the login/world stages map directly onto the §7 error
// taxonomy (AuthFailed/NotFound/StorageIO), so callers never need to parse
// an error string to decide how to reply to a client.
var (
	ErrNotFound        = errors.New("storage: not found")
	ErrAlreadyExists   = errors.New("storage: already exists")
	ErrInvalidPassword = errors.New("storage: invalid password")
)
