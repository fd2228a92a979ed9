package validate

import (
	"strings"

	"github.com/pb33f/libopenapi-validator/errors"
)

// ValidationError reports an outbound request that does not match the API
// description.
type ValidationError struct {
	Method  string
	URL     string
	Message string
	Errors  []*errors.ValidationError
}

func (e *ValidationError) Error() string {
	details := e.Details()
	if len(details) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(details, "; ")
}

// Details returns one line per validator finding, with its reason when known.
func (e *ValidationError) Details() []string {
	var out []string
	for _, ve := range e.Errors {
		if ve == nil {
			continue
		}
		line := ve.Message
		if ve.Reason != "" {
			line += " (" + ve.Reason + ")"
		}
		out = append(out, line)
	}
	return out
}
