package relay

// The relay's error taxonomy. Validation and authorization errors carry
// precise client-facing messages; upstream errors carry a generic message and
// keep the underlying cause for logs only.

// ValidationError signals bad or missing request parameters (HTTP 400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AuthError signals missing, malformed, or expired credentials (HTTP 401).
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// AuthorizationError signals a space the caller is not entitled to (HTTP 400).
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// UpstreamError signals a failure talking to the remote platform (HTTP 500).
// Message is safe for clients; Cause is logged and never serialized.
type UpstreamError struct {
	Message string
	Cause   error
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Cause }
