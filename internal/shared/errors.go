package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrUnauthorized       = fmt.Errorf("not authorized")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrTokenExpired       = fmt.Errorf("token expired")

	// Saved-content errors
	ErrValidation   = fmt.Errorf("validation failed")
	ErrDuplicate    = fmt.Errorf("already exists")
	ErrNotFound     = fmt.Errorf("not found")
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

	// Storage errors
	ErrStorage           = fmt.Errorf("storage failure")
	ErrUnsupportedDriver = fmt.Errorf("unsupported storage driver")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
