package transport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Resty is a Sender backed by a resty client. It never retries.
type Resty struct {
	client  *resty.Client
	metrics *Metrics
}

type RestyOption func(*Resty)

// WithMetrics records every request in m.
func WithMetrics(m *Metrics) RestyOption {
	return func(r *Resty) { r.metrics = m }
}

// WithDebug logs raw requests and responses through resty.
func WithDebug(debug bool) RestyOption {
	return func(r *Resty) { r.client.SetDebug(debug) }
}

func NewResty(timeout time.Duration, opts ...RestyOption) *Resty {
	client := resty.New().
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return NewRestyWithClient(client, opts...)
}

// NewRestyWithClient wraps an existing client, keeping its headers,
// transport and timeout.
func NewRestyWithClient(client *resty.Client, opts ...RestyOption) *Resty {
	r := &Resty{client: client}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resty) Send(ctx context.Context, req *Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = "GET"
	}
	url := req.FullURL()

	rr := r.client.R().SetContext(ctx)
	if len(req.Headers) > 0 {
		rr.SetHeaders(req.Headers)
	}
	if req.Body != nil {
		rr.SetHeader("Content-Type", "application/json").SetBody(req.Body)
	}

	start := time.Now()
	resp, err := rr.Execute(method, url)
	if err != nil {
		r.metrics.observe(method, "error", time.Since(start))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	r.metrics.observe(method, strconv.Itoa(resp.StatusCode()), time.Since(start))

	out := &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}
	if resp.IsError() || resp.StatusCode() >= 300 {
		return out, &StatusError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode(),
			Body:       resp.Body(),
		}
	}
	return out, nil
}
