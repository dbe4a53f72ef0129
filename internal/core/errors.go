package core

import "errors"

var (
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInternshipClosed = errors.New("internship is closed")
)
