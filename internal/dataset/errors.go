package dataset

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a dataset could not be loaded.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindNetworkFailure
	KindParseFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindNetworkFailure:
		return "network_failure"
	case KindParseFailure:
		return "parse_failure"
	default:
		return "unknown"
	}
}

// LoadError is returned by sources and the Loader. Source names the origin
// that failed (path, URL, bucket/key).
type LoadError struct {
	Kind   ErrorKind
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Source, e.Kind)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Message is the text shown to a viewer in place of the dashboard.
func (e *LoadError) Message() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("Data source %q was not found.", e.Source)
	case KindNetworkFailure:
		return fmt.Sprintf("Could not download data from %q.", e.Source)
	case KindParseFailure:
		if e.Err != nil {
			return fmt.Sprintf("Data from %q could not be read: %v.", e.Source, e.Err)
		}
		return fmt.Sprintf("Data from %q could not be read.", e.Source)
	default:
		return "The data could not be loaded."
	}
}

func newLoadError(kind ErrorKind, source string, err error) *LoadError {
	return &LoadError{Kind: kind, Source: source, Err: err}
}

// AsLoadError unwraps err to a *LoadError.
func AsLoadError(err error) (*LoadError, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// IsKind reports whether err is a LoadError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	le, ok := AsLoadError(err)
	return ok && le.Kind == kind
}
