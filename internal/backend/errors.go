package backend

import (
	"errors"
	"fmt"

	"github.com/padelhub/storefront/internal/httpclient"
)

var (
	// ErrNetwork means the backend could not be reached.
	ErrNetwork = errors.New("backend unreachable")
	// ErrMalformedResponse means the backend answered with an unexpected shape.
	ErrMalformedResponse = errors.New("malformed backend response")
	// ErrRejected means the backend answered success:false with a message.
	ErrRejected = errors.New("request rejected by backend")
	// ErrUnauthorized means the backend answered 401. The session must be torn down.
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is a non-2xx answer other than 401.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// RejectedError carries the backend's message for a success:false answer.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// UnauthorizedError is a 401 answer. It matches ErrUnauthorized.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return ErrUnauthorized.Error()
	}
	return ErrUnauthorized.Error() + ": " + e.Message
}

func (e *UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

// Message returns the text suitable for showing to the user, or "".
func Message(err error) string {
	var re *RejectedError
	if errors.As(err, &re) {
		return re.Message
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	var ue *UnauthorizedError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return ""
}

// classify maps executor errors onto the backend taxonomy.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, httpclient.ErrTransport):
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	case errors.Is(err, httpclient.ErrDecode):
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return err
}
