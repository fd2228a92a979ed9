// Package request turns a chosen operation plus parameter values into a fully
// formed outbound request.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kolah/oclist/internal/model"
	"github.com/kolah/oclist/internal/transport"
)

// OutboundRequest is the result of Build.
type OutboundRequest struct {
	// Method is the lower-cased HTTP verb.
	Method string
	// BaseURL is issuer + "/v1", or "" when no token could be decoded.
	BaseURL     string
	Path        string
	Headers     map[string]string
	Route       []Param
	Params      []Param
	QueryString string
	Body        any
}

// URL joins BaseURL, Path and QueryString.
func (r *OutboundRequest) URL() string {
	return r.Transport().FullURL()
}

// Transport converts the request for a transport.Sender.
func (r *OutboundRequest) Transport() *transport.Request {
	return &transport.Request{
		Method:      r.Method,
		BaseURL:     r.BaseURL,
		URL:         r.Path,
		Headers:     r.Headers,
		QueryString: r.QueryString,
		Body:        r.Body,
	}
}

// HTTPRequest renders the request as a *http.Request, e.g. for validation.
func (r *OutboundRequest) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		encoded, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(r.Method), r.URL(), body)
	if err != nil {
		return nil, err
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Classify tags each parameter as RouteParam when the operation declares it
// in: path, and QueryParam otherwise.
func Classify(op *model.Operation, params []Param) (route, query []Param) {
	for _, p := range params {
		if op.IsRouteParam(p.Name) {
			p.Kind = RouteParam
			route = append(route, p)
		} else {
			p.Kind = QueryParam
			query = append(query, p)
		}
	}
	return route, query
}

// RoutingURL substitutes truthy route parameters into the path template.
// Placeholders without a value are left literally in place.
func RoutingURL(path string, route []Param) string {
	if !strings.Contains(path, "{") {
		return path
	}
	for _, p := range route {
		if !Truthy(p.Value) {
			continue
		}
		path = strings.Replace(path, "{"+p.Name+"}", url.PathEscape(stringify(p.Value)), 1)
	}
	return path
}

// Build produces the outbound request for op. params mixes route and query
// values in the order they should be serialized.
func Build(op *model.Operation, token string, params []Param, body any) (*OutboundRequest, error) {
	if op == nil {
		return nil, fmt.Errorf("building request: no operation")
	}

	route, query := Classify(op, params)

	var present []Param
	for _, p := range query {
		if Truthy(p.Value) {
			present = append(present, p)
		}
	}

	req := &OutboundRequest{
		Method:      op.Verb(),
		Path:        RoutingURL(op.Path, route),
		Headers:     map[string]string{"Authorization": "Bearer " + token},
		Route:       route,
		Params:      present,
		QueryString: QueryString(present),
		Body:        body,
	}

	if iss, err := Issuer(token); err == nil && iss != "" {
		req.BaseURL = iss + "/v1"
	}

	return req, nil
}
