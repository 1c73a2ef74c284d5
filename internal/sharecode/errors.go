package sharecode

import (
	"errors"
	"fmt"
)

// ParseError reports a share code that could not be decoded. The raw code is
// kept for callers but left out of Error() because it may contain the key.
type ParseError struct {
	Code   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid share code: %s: %v", e.Reason, e.Err)
	}
	return "invalid share code: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err (or anything it wraps) is a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func parseErr(code, reason string, err error) *ParseError {
	return &ParseError{Code: code, Reason: reason, Err: err}
}
