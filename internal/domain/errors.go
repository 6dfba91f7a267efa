package domain

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrPaymentInProgress = errors.New("payment already in progress")
	ErrConfigMissing     = errors.New("required configuration missing")
)
