package data

import "errors"

var (
	ErrOrderNotFound             = errors.New("order not found")
	ErrMalformedOrder            = errors.New("malformed order data")
	ErrUniqueConstraintViolation = errors.New("unique constraint violation")
)
