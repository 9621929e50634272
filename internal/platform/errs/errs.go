package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes application errors for HTTP status mapping.
type Kind int

const (
	// Unknown represents an unclassified error.
	Unknown Kind = iota
	// InvalidInput indicates the request was malformed (HTTP 400).
	InvalidInput
	// Unreachable indicates the target URL could not be reached (HTTP 502).
	Unreachable
	// Timeout indicates the target took too long to respond (HTTP 504).
	Timeout
	// ParsingFailed indicates the response could not be parsed (HTTP 500).
	ParsingFailed
	// NotFound indicates the requested record does not exist (HTTP 404).
	NotFound
	// Unauthorized indicates the operation needs a signed-in user (HTTP 401).
	Unauthorized
	// Forbidden indicates the record belongs to someone else (HTTP 403).
	Forbidden
)

// AppError carries a category, user message, and original cause.
type AppError struct {
	Kind           Kind
	UpstreamStatus int // HTTP status code returned by the target domain
	Message        string
	Cause          error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// KindOf returns the Kind of the first *AppError in err's chain, or Unknown.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unknown
}
