package transport

import (
	"errors"
	"fmt"
)

// Sentinel markers for the failure classes every provider reports. Callers
// branch on them with errors.Is.
var (
	ErrTransport = errors.New("transport error")
	ErrProtocol  = errors.New("protocol error")
	ErrIntegrity = errors.New("integrity error")
)

// TransportError is a connection or I/O failure. It is the only class that
// WithRetry re-attempts.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ProtocolError is a non-2xx response or a provider status field reporting
// failure. StatusCode is zero when the HTTP exchange itself succeeded.
type ProtocolError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *ProtocolError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("API error (status %d)", e.StatusCode)
	case e.Code != "":
		return fmt.Sprintf("API error (code %s): %s", e.Code, e.Message)
	default:
		return fmt.Sprintf("API error: %s", e.Message)
	}
}

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

// IntegrityError reports a checksum the remote side did not confirm.
type IntegrityError struct {
	Expected string
	Actual   string
	Message  string
}

func (e *IntegrityError) Error() string {
	if e.Actual != "" {
		return fmt.Sprintf("integrity check failed: expected %s, got %s", e.Expected, e.Actual)
	}
	return fmt.Sprintf("integrity check failed: %s", e.Message)
}

func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrity }
