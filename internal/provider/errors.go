package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Failure taxonomy for inference calls. All three are recoverable: callers
// degrade to a non-AI path instead of surfacing these to end users.
var (
	// ErrUnavailable indicates the backend could not be reached or is
	// overloaded (connection failure, 429, 5xx).
	ErrUnavailable = errors.New("backend unavailable")
	// ErrTimeout indicates the bounded call deadline elapsed. Retryable;
	// no cost is confirmed for a timed-out call.
	ErrTimeout = errors.New("backend timeout")
	// ErrRejected indicates the backend refused the request (bad key,
	// unsupported model or region, malformed request).
	ErrRejected = errors.New("backend rejected request")
)

// BackendError wraps one of the sentinel errors with provider context.
type BackendError struct {
	Provider string
	Kind     error
	Detail   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("provider %s: %s: %s", e.Provider, e.Kind, e.Detail)
}

func (e *BackendError) Unwrap() error { return e.Kind }

// classifyTransport maps a transport-level error to the failure taxonomy.
func classifyTransport(providerID string, err error) error {
	kind := ErrUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrTimeout
	} else {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			kind = ErrTimeout
		}
	}
	return &BackendError{Provider: providerID, Kind: kind, Detail: err.Error()}
}

// classifyStatus maps a non-200 HTTP status to the failure taxonomy.
func classifyStatus(providerID string, status int, body string) error {
	kind := ErrRejected
	if status == http.StatusTooManyRequests || status >= 500 {
		kind = ErrUnavailable
	}
	return &BackendError{
		Provider: providerID,
		Kind:     kind,
		Detail:   fmt.Sprintf("status %d: %s", status, truncate(body, 300)),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
