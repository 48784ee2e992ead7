package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrInvalidInput marks a request the provider can never fulfil, such as
	// an empty text. Not retryable.
	ErrInvalidInput = errors.New("embedding: invalid input")

	// ErrRateLimited marks a request rejected by provider throttling.
	// Retryable after backoff.
	ErrRateLimited = errors.New("embedding: rate limited")

	// ErrRemoteUnavailable marks a transient provider failure: a 5xx
	// response, a connection error, or a timeout. Retryable after backoff.
	ErrRemoteUnavailable = errors.New("embedding: remote unavailable")
)

// Retryable reports whether the error is transient and worth retrying.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrRemoteUnavailable)
}

// classifyStatus maps an HTTP status from a provider response onto the error
// taxonomy, keeping the provider error in the chain.
func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case status >= 500:
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	case status == http.StatusBadRequest:
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		return err
	}
}

// classifyTransport maps transport-level failures (no HTTP response at all)
// onto the taxonomy. Context cancellation passes through untouched so callers
// can distinguish their own deadline from provider trouble.
func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return err
}
