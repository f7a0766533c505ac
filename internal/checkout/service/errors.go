package service

import (
	"errors"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrOrderRegistration      = errors.New("order registration failed")
	ErrGatewayMaintenance     = errors.New("payment gateway under maintenance")
	ErrWebhookMalformed       = errors.New("webhook payload has no order id")
	ErrOrderNotFound          = errors.New("order not found")
	ErrConversionsUnavailable = errors.New("conversion tracking is not configured")
)

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// GatewayError is a payment-gateway failure other than maintenance.
type GatewayError struct {
	// Raw is the provider response, empty for transport failures.
	Raw string
	// Rejected is true when the gateway answered well-formed JSON without a bill.
	Rejected bool
	Err      error
}

func (e *GatewayError) Error() string {
	return "payment gateway error: " + e.Err.Error()
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

type ConversionRejectedError struct {
	Details string
}

func (e *ConversionRejectedError) Error() string {
	return "conversion event rejected: " + e.Details
}
