package service

import "errors"

// Domain errors translated to HTTP statuses at the handler boundary.
var (
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAllowed         = errors.New("not authorized")
	ErrAlertNotPending    = errors.New("alert is not pending approval")
	ErrNoReports          = errors.New("no reports found for this location")
	ErrValidation         = errors.New("validation failed")
)
