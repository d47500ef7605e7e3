package auth

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthorized marks a request without bearer credentials.
	ErrUnauthorized = errors.New("auth: missing bearer token")
	// ErrInvalidToken wraps every token that fails to parse or verify.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrForbidden marks a valid caller whose role is below the route's.
	ErrForbidden = errors.New("auth: role not permitted")
)

// StatusFor maps an auth failure to its HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}
