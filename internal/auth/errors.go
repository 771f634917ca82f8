package auth

import "errors"

var (
	ErrHandlePasswordRequired = errors.New("Handle and password are required")
	ErrInvalidHandle          = errors.New("Invalid handle")
	ErrIncorrectPassword      = errors.New("Incorrect password")
	ErrInvalidToken           = errors.New("Invalid or expired token")
	ErrTokenRevoked           = errors.New("Token has been revoked")
	ErrNotAuthenticated       = errors.New("Not authenticated")
)
