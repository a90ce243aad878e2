package services

import "errors"

// Sentinel errors returned by the services. Callers match them with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateName      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
