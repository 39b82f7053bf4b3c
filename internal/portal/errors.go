package portal

import (
	"errors"
	"fmt"
)

// ErrSessionExpired matches upstream failures that look like a rejected session
// (401, 403, 419 or a redirect to the login page).
var ErrSessionExpired = errors.New("portal session expired")

// AuthError reports a login the portal did not accept: wrong credentials or a
// login page that no longer matches the expected layout.
type AuthError struct {
	Reason string
	// Cookies holds whatever session/CSRF cookies were observed.
	Cookies map[string]string
}

func (e *AuthError) Error() string {
	return "portal login failed: " + e.Reason
}

// UpstreamError is a non-success response from the portal.
type UpstreamError struct {
	Op     string
	Status int
	Body   string
	// Expired marks authentication-shaped failures.
	Expired bool
	// Err is the transport failure when no response arrived.
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("portal %s: %v", e.Op, e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("portal %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("portal %s: status %d: %s", e.Op, e.Status, e.Body)
}

// Is lets errors.Is(err, ErrSessionExpired) match expired-session responses.
func (e *UpstreamError) Is(target error) bool {
	return e.Expired && target == ErrSessionExpired
}

func (e *UpstreamError) Unwrap() error { return e.Err }
