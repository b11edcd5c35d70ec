package api

import (
	"errors"
	"fmt"
)

// ErrNoMessage is returned by Message when err carries no server message
var ErrNoMessage = errors.New("no server message")

// Error describes a failed call to the remote API.
// StatusCode is zero when the request never got a response.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: request failed with status code %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Message extracts the server-supplied message from err
func Message(err error) (string, error) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, nil
	}
	return "", ErrNoMessage
}

// MessageOr returns the server message carried by err, or fallback
func MessageOr(err error, fallback string) string {
	if msg, mErr := Message(err); mErr == nil {
		return msg
	}
	return fallback
}

// Describe returns the server message when present, otherwise a short
// description of the transport failure.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if msg, mErr := Message(err); mErr == nil {
		return msg
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode != 0 {
			return fmt.Sprintf("Request failed with status code %d", apiErr.StatusCode)
		}
		if apiErr.Err != nil {
			return apiErr.Err.Error()
		}
	}
	return err.Error()
}
