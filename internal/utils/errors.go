package utils

import "errors"

// Common application errors used across services.
var (
	ErrUnauthorized       = errors.New("UNAUTHORIZED")
	ErrInvalidToken       = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrEmailTaken         = errors.New("EMAIL_TAKEN")
	ErrWeakPassword       = errors.New("WEAK_PASSWORD")
	ErrSettingsMissing    = errors.New("SETTINGS_MISSING")
	ErrNotFound           = errors.New("NOT_FOUND")
	ErrInvalidRequest     = errors.New("INVALID_REQUEST")
	ErrProvider           = errors.New("PROVIDER_ERROR")
	ErrInvalidJob         = errors.New("INVALID_JOB")
	ErrBatchTooLarge      = errors.New("BATCH_TOO_LARGE")
)
