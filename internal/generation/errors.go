package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrServiceUnavailable means the provider answered 503 (model still loading)
	ErrServiceUnavailable = errors.New("model is loading, try again in a minute")

	// ErrQuotaExhausted means the provider answered 402 (credits exhausted)
	ErrQuotaExhausted = errors.New("generation credits exhausted")

	// ErrProviderUnauthorized means the provider rejected the API key, or none is configured
	ErrProviderUnauthorized = errors.New("generation API key rejected")

	// ErrTimeout matches a TransportError caused by the wait bound
	ErrTimeout = errors.New("generation request timed out")
)

// ProviderError is any other non-success answer from the provider.
type ProviderError struct {
	StatusCode int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("generation provider error %d", e.StatusCode)
}

// TransportError wraps a failure to reach the provider or read its answer.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Timeout() {
		return "generation request timed out: " + e.Err.Error()
	}
	return "generation request failed: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the wait bound was exceeded.
func (e *TransportError) Timeout() bool {
	var t interface{ Timeout() bool }
	if errors.As(e.Err, &t) && t.Timeout() {
		return true
	}
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Is lets errors.Is(err, ErrTimeout) match timed-out transport errors.
func (e *TransportError) Is(target error) bool {
	return target == ErrTimeout && e.Timeout()
}

// StatusCode maps the error for the HTTP layer.
func (e *TransportError) StatusCode() int {
	if e.Timeout() {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
