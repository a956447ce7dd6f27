package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable wraps transport failures: the backend never answered.
	ErrUnavailable = errors.New("backend unreachable")

	// ErrUnauthorized is a 401 from any endpoint. The session layer treats
	// it as a global signal: clear the session and return to the entry
	// route, whatever page the call came from.
	ErrUnauthorized = errors.New("session expired or invalid")
)

// StatusError is a non-2xx rejection carrying the server-provided message
// (validation failure, not found, conflict).
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend rejected request (%d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backend rejected request (%d)", e.Code)
}

// IsNotFound reports whether err is a 404 rejection.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == 404
}
