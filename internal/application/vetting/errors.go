package vetting

import "errors"

var (
	ErrApplicationNotFound = errors.New("Application not found")
	ErrAlreadyFinalized    = errors.New("Application already finalized")
	ErrPendingExists       = errors.New("A pending application already exists for this account")
	ErrIntegrity           = errors.New("Application status and account role diverged")
)
