package api

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError is returned for a non-2xx upstream status.
// Body holds the decoded JSON error body when there is one, the raw text otherwise.
type TransportError struct {
	Endpoint string
	Status   int
	Body     any
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream request failed: %d %s", e.Status, http.StatusText(e.Status))
}

// ValidationError reports a payload that does not fit the endpoint's canonical shape.
// Index is the list position of the offending entry, or -1 for the payload itself.
type ValidationError struct {
	Endpoint string
	Index    int
	Field    string
	Err      error
}

func (e *ValidationError) Error() string {
	msg := "invalid " + e.Endpoint + " response"
	if e.Index >= 0 {
		msg += fmt.Sprintf(" entry %d", e.Index)
	}
	if e.Field != "" {
		msg += " field " + e.Field
	}
	return msg + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

var errMissing = errors.New("required field missing")

// IsNotFound reports whether err carries an upstream 404.
func IsNotFound(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Status == http.StatusNotFound
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StatusOf extracts the upstream status code, 0 when err is not a TransportError.
func StatusOf(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Status
	}
	return 0
}
