package dataset

import (
	"errors"
	"fmt"
)

// ErrInvalidColumn is matched by every InvalidColumnError.
var ErrInvalidColumn = errors.New("invalid column")

// InvalidColumnError reports a metric, feature or group key that is absent
// from the schema or has the wrong kind for the requested operation.
type InvalidColumnError struct {
	Column string
	Reason string
}

func (e *InvalidColumnError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid column %q", e.Column)
	}
	return fmt.Sprintf("invalid column %q: %s", e.Column, e.Reason)
}

func (e *InvalidColumnError) Is(target error) bool { return target == ErrInvalidColumn }

// LoadError indicates the dataset could not be fetched or decoded.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e == nil {
		return "dataset load failed"
	}
	return fmt.Sprintf("load dataset %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response from a remote dataset source.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("unexpected status %s", e.Status)
}
