package service

import "errors"

// Handlers map these onto HTTP status codes; see server.respondError.
var (
	// Conflict
	ErrEmailTaken = errors.New("user with this email already exists")
	ErrDuplicate  = errors.New("already exists")

	// Unauthorized
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is not active")
	ErrUserNotFound       = errors.New("user not found")

	// BadRequest
	ErrWrongPassword     = errors.New("current password is incorrect")
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	ErrInvalidReply      = errors.New("invalid reply target")
	ErrInvalidInput      = errors.New("invalid input")

	ErrForbidden = errors.New("forbidden")
	ErrNotFound  = errors.New("not found")
)
