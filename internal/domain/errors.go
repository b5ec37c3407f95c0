package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateLogin = errors.New("login already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidInput   = errors.New("invalid input")
)
