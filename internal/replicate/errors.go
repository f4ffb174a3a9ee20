package replicate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a provider failure into the application taxonomy.
// Classification happens exactly once, at the transport boundary, so no
// other layer needs to inspect status codes or message text.
type ErrorKind string

const (
	// KindInvalidRequest indicates the provider rejected the input.
	KindInvalidRequest ErrorKind = "invalid_request"
	// KindNotFound indicates the requested resource does not exist.
	// ResolveVersion promotes this to KindModelUnavailable.
	KindNotFound ErrorKind = "not_found"
	// KindModelUnavailable indicates no runnable version exists for a model.
	KindModelUnavailable ErrorKind = "model_unavailable"
	// KindAuthenticationFailed indicates a missing or invalid API token.
	KindAuthenticationFailed ErrorKind = "authentication_failed"
	// KindQuotaExceeded indicates a billing or rate limit was hit.
	KindQuotaExceeded ErrorKind = "quota_exceeded"
	// KindProviderTransient indicates a 5xx, network, or timeout failure
	// at the transport layer. Only this kind is retried.
	KindProviderTransient ErrorKind = "provider_transient"
)

// APIError is a classified provider or transport failure.
type APIError struct {
	// Kind is the taxonomy classification.
	Kind ErrorKind
	// StatusCode is the HTTP status that produced the error, 0 for
	// network-level failures.
	StatusCode int
	// Message is the provider-supplied or transport error text.
	Message string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("replicate: %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("replicate: %s: %s", e.Kind, e.Message)
}

// Retryable reports whether the transport layer may retry the request.
// Quota and auth failures are deliberately not retryable.
func (e *APIError) Retryable() bool {
	return e.Kind == KindProviderTransient
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// classify maps an HTTP status code and response body to an APIError.
// The status code is authoritative; message substrings are consulted only
// when the status code is ambiguous.
func classify(statusCode int, body apiErrorBody) *APIError {
	msg := body.message()
	if msg == "" {
		msg = "request failed"
	}

	var kind ErrorKind
	switch {
	case statusCode == 401 || statusCode == 403:
		kind = KindAuthenticationFailed
	case statusCode == 402 || statusCode == 429:
		kind = KindQuotaExceeded
	case statusCode == 404:
		kind = KindNotFound
	case statusCode == 400 || statusCode == 422:
		kind = KindInvalidRequest
	case statusCode >= 500:
		kind = KindProviderTransient
	default:
		kind = classifyByMessage(msg)
	}

	return &APIError{Kind: kind, StatusCode: statusCode, Message: msg}
}

// classifyByMessage is the last-resort classification when the status code
// carries no signal.
func classifyByMessage(msg string) ErrorKind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "quota") || strings.Contains(lower, "billing") || strings.Contains(lower, "insufficient credit"):
		return KindQuotaExceeded
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "authentication") || strings.Contains(lower, "api token"):
		return KindAuthenticationFailed
	case strings.Contains(lower, "not found"):
		return KindNotFound
	default:
		return KindInvalidRequest
	}
}

// transientError wraps a network-level failure as a retryable APIError.
func transientError(err error) *APIError {
	return &APIError{Kind: KindProviderTransient, Message: err.Error()}
}
