package gate

import "errors"

// ErrUnauthorized is returned by Gate.Authorize when access is denied.
var ErrUnauthorized = errors.New("unauthorized")
