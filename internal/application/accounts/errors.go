package accounts

import "errors"

var (
	ErrDuplicateIdentity  = errors.New("Handle already registered")
	ErrAccountNotFound    = errors.New("Account not found")
	ErrLastAdminProtected = errors.New("Cannot delete the last admin account")
	ErrInvalidRole        = errors.New("Invalid role")
)
