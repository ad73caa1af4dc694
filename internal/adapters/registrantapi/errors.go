package registrantapi

import (
	"fmt"
	"net/http"
)

// AuthError is returned when the backend rejects the admin token or credentials.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("backend rejected credentials (%d): %s", e.StatusCode, e.Message)
}

// NotFoundError is returned when an attachment no longer exists.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return "attachment not found: " + e.URL
}

// RejectedError is returned when the backend refuses a submission with a 4xx status.
// Message is the backend's own explanation, or a fallback when it sent none.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// NetworkError covers transport failures and unexpected backend responses.
// StatusCode is zero when no response was received.
type NetworkError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s: %s", e.Op, http.StatusText(e.StatusCode), e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
