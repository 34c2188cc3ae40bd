package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var ErrMissingCardToken = errors.New("gateway returned no card token")

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercadopago: %s (status %d)", e.Message, e.StatusCode)
}

// Temporary reports whether the failure says something about gateway health
// rather than about the request we sent.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

func parseAPIError(status int, body []byte, fallback string) *APIError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)

	msg := payload.Message
	if msg == "" {
		msg = fallback
	}
	return &APIError{StatusCode: status, Message: msg, Code: payload.Error}
}
