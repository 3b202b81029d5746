package auth

import "errors"

// Error taxonomy for session operations. Callers match with errors.Is;
// the transport layer owns the mapping to status codes. NotFoundErr never
// leaves the core for authentication paths - identity misses collapse to
// UnauthorizedErr so callers cannot enumerate accounts.
var (
	ValidationErr   = errors.New("required fields missing or empty")
	ConflictErr     = errors.New("username or email already exists")
	UnauthorizedErr = errors.New("unauthorized")
	NotFoundErr     = errors.New("not found")
	InternalErr     = errors.New("internal error")
)
