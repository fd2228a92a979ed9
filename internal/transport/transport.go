// Package transport is the single outbound HTTP capability: every request the
// console makes goes through a Sender.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Request is an outbound call. URL is appended to BaseURL unless it is already
// absolute. QueryString is sent as-is.
type Request struct {
	Method      string
	BaseURL     string
	URL         string
	Headers     map[string]string
	QueryString string
	Body        any
}

// FullURL joins BaseURL, URL and QueryString.
func (r *Request) FullURL() string {
	u := r.URL
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = strings.TrimSuffix(r.BaseURL, "/") + u
	}
	if r.QueryString != "" {
		if strings.Contains(u, "?") {
			u += "&" + r.QueryString
		} else {
			u += "?" + r.QueryString
		}
	}
	return u
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// Sender executes requests. Implementations return *StatusError for non-2xx replies.
type Sender interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, req *Request) (*Response, error)

func (f SenderFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// StatusError reports a reply outside the 2xx range.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", strings.ToUpper(e.Method), e.URL, e.StatusCode)
}

// IsNotFound returns true for 404.
func (e *StatusError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true for 401.
func (e *StatusError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}
