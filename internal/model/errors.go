package model

import "errors"

// ErrInvalidInput is returned when a required snapshot, record or document
// is missing, or when a value cannot be decoded into one of the closed
// enumerations of this package.
var ErrInvalidInput = errors.New("invalid input")
