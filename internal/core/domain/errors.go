package domain

import "errors"

// Error kinds. Every concrete domain error unwraps to exactly one of these so
// the transport layer can map it without knowing the concrete error.
var (
	ErrNotFound           = errors.New("not found")
	ErrUnavailable        = errors.New("resource unavailable")
	ErrConflict           = errors.New("conflict")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
)

// Error is a domain error tagged with its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

var (
	ErrUserNotFound    = newError(ErrNotFound, "user not found")
	ErrClientNotFound  = newError(ErrNotFound, "client not found")
	ErrSpotNotFound    = newError(ErrNotFound, "parking spot not found")
	ErrSessionNotFound = newError(ErrNotFound, "open parking session not found")

	ErrNoFreeSpot = newError(ErrUnavailable, "no free parking spot available")

	ErrUserExists           = newError(ErrConflict, "username already registered")
	ErrTaxIDExists          = newError(ErrConflict, "client tax id already registered")
	ErrClientExists         = newError(ErrConflict, "user already has a client profile")
	ErrSpotCodeExists       = newError(ErrConflict, "parking spot code already registered")
	ErrReceiptConflict      = newError(ErrConflict, "receipt already issued")
	ErrIdempotencyKeyReused = newError(ErrConflict, "idempotency key already used for another client")

	ErrInvalidDuration   = newError(ErrValidation, "exit time is before entry time")
	ErrInvalidTaxID      = newError(ErrValidation, "invalid cpf")
	ErrInvalidReceipt    = newError(ErrValidation, "receipt must be yyyyMMdd-HHmmss")
	ErrMissingFields     = newError(ErrValidation, "username and password are required")
	ErrInvalidRole       = newError(ErrValidation, "unknown role")
	ErrInvalidSpotStatus = newError(ErrValidation, "unknown parking spot status")
	ErrPasswordMismatch  = newError(ErrValidation, "new password and confirmation do not match")
	ErrWrongPassword     = newError(ErrInvalidCredentials, "current password is incorrect")
)
