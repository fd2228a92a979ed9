package validate

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/kolah/oclist/internal/spectest"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	v, err := New(spectest.OrderCloud)
	require.NoError(t, err)
	require.NotNil(t, v)

	_, err = New([]byte("not an api description"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	v, err := New(spectest.OrderCloud)
	require.NoError(t, err)

	tests := []struct {
		name    string
		method  string
		url     string
		wantErr bool
	}{
		{"valid list", http.MethodGet, "https://api.example.com/v1/buyers?page=2&search=acme", false},
		{"list without query", http.MethodGet, "https://api.example.com/v1/buyers", false},
		{"page not an integer", http.MethodGet, "https://api.example.com/v1/buyers?page=two", true},
		{"missing required query", http.MethodGet, "https://api.example.com/v1/categories/c1", true},
		{"required query present", http.MethodGet, "https://api.example.com/v1/categories/c1?depth=2", false},
		{"unknown path", http.MethodGet, "https://api.example.com/v1/nowhere", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequestWithContext(context.Background(), tt.method, tt.url, nil)
			require.NoError(t, err)

			err = v.Validate(req)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tt.method, verr.Method)
			require.NotEmpty(t, verr.Errors)
			require.NotEmpty(t, verr.Details())
			require.Contains(t, verr.Error(), "request validation failed: ")
		})
	}
}

func TestNilValidatorAcceptsEverything(t *testing.T) {
	var v *Validator
	req, err := http.NewRequest(http.MethodDelete, "https://api.example.com/anything", nil)
	require.NoError(t, err)
	require.NoError(t, v.Validate(req))
}

func TestValidationErrorWithoutFindings(t *testing.T) {
	err := &ValidationError{Message: "request validation failed"}
	require.Equal(t, "request validation failed", err.Error())
	require.Empty(t, err.Details())
}
