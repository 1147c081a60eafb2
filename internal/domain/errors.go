package domain

import "fmt"

// AuthenticationError means the site rejected the credentials during login.
// User-actionable; distinct from transport failures.
type AuthenticationError struct {
	Location string
}

func (e *AuthenticationError) Error() string {
	if e.Location == "" {
		return "authentication rejected by site"
	}
	return fmt.Sprintf("authentication rejected by site (redirected to %s)", e.Location)
}

// TransportError wraps a network-level failure (DNS, connect, timeout).
// Retryable by the next scheduled tick, never within a cycle.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UnexpectedStatusError reports a non-2xx response where success was required.
type UnexpectedStatusError struct {
	URL        string
	StatusCode int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// MalformedPageError means the expected markup structure was missing or
// unparsable. Cycle-fatal: the column layout is positional, so a structure
// change would silently corrupt the other resources too.
type MalformedPageError struct {
	Field  string
	Reason string
}

func (e *MalformedPageError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("malformed page: %s not found", e.Field)
	}
	return fmt.Sprintf("malformed page: %s: %s", e.Field, e.Reason)
}

// InvalidPolicyInputError reports a negative stock or consumption value fed
// to the replenishment policy.
type InvalidPolicyInputError struct {
	Entry StockEntry
}

func (e *InvalidPolicyInputError) Error() string {
	return fmt.Sprintf("stocks and daily consumption cannot be negative (%s: level %d, consumption %d)",
		e.Entry.Kind, e.Entry.Level, e.Entry.DailyConsumption)
}
