package service

import (
	"errors"
	"fmt"

	"github.com/akylbek/coworking-payments/internal/gateway"
)

// ValidationError is returned before any gateway call is made.
type ValidationError struct {
	Message string
	Details string
}

func (e *ValidationError) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Details)
}

func invalid(message, details string) error {
	return &ValidationError{Message: message, Details: details}
}

// GatewayError aborts the request; the gateway's own message is passed through.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Message is the text shown to the API caller.
func (e *GatewayError) Message() string {
	var apiErr *gateway.APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.Message
	}
	return e.Err.Error()
}

// StatusCode is the gateway HTTP status, or 0 when the call never got an answer.
func (e *GatewayError) StatusCode() int {
	var apiErr *gateway.APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func gatewayErr(op string, err error) error {
	return &GatewayError{Op: op, Err: err}
}
