package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidResetCode   = errors.New("reset code is invalid or expired")

	ErrUserNotFound         = errors.New("user not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrApplicationNotFound  = errors.New("application not found")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrUserExists           = errors.New("user already exists")
	ErrDuplicateApplication = errors.New("already applied to this project")
)
