// Package validate checks outbound requests against the API description
// before they are sent.
package validate

import (
	"fmt"
	"net/http"

	"github.com/pb33f/libopenapi"
	validator "github.com/pb33f/libopenapi-validator"
)

// Validator checks requests against one API description.
type Validator struct {
	validator validator.Validator
}

// New builds a validator from raw description bytes.
func New(raw []byte) (*Validator, error) {
	doc, err := libopenapi.NewDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing OpenAPI document: %w", err)
	}

	v, errs := validator.NewValidator(doc)
	if len(errs) > 0 {
		return nil, fmt.Errorf("building validator: %w", errs[0])
	}

	return &Validator{validator: v}, nil
}

// Validate returns a *ValidationError when r does not satisfy the operation
// it targets. A nil Validator accepts everything.
func (v *Validator) Validate(r *http.Request) error {
	if v == nil {
		return nil
	}
	valid, errs := v.validator.ValidateHttpRequestSync(r)
	if valid {
		return nil
	}
	return &ValidationError{
		Method:  r.Method,
		URL:     r.URL.String(),
		Message: "request validation failed",
		Errors:  errs,
	}
}
