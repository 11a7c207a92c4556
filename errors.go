package authcore

import "errors"

// Login and moderation failures. All are expected, recoverable-by-caller
// conditions; transport layers translate them into distinct responses so a
// user can tell "request a new code" from "check your code".
var (
	ErrCodeNotFound = errors.New("no pending code for this identity")
	ErrCodeExpired  = errors.New("code expired")
	ErrCodeMismatch = errors.New("code mismatch")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is locked")

	ErrUserNotFound          = errors.New("user not found")
	ErrApplicationNotFound   = errors.New("seller application not found")
	ErrApplicationNotPending = errors.New("seller application already decided")
	ErrDuplicateApplication  = errors.New("a pending seller application already exists")

	ErrInvalidSessionToken = errors.New("invalid session token")
)
