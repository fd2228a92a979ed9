package model

import "strings"

type Operation struct {
	ID          string
	Method      Method
	Path        string
	Summary     string
	Description string
	Tags        []string
	Parameters  []Parameter
	RequestBody *RequestBody
	Responses   []Response
	Deprecated  bool
}

// Resource returns the owning resource tag, the first declared tag.
func (o Operation) Resource() string {
	if len(o.Tags) == 0 {
		return ""
	}
	return o.Tags[0]
}

// Verb returns the lower-cased HTTP method.
func (o Operation) Verb() string {
	return strings.ToLower(string(o.Method))
}

// Parameter returns the declared parameter with the given name, or nil.
func (o Operation) Parameter(name string) *Parameter {
	for i := range o.Parameters {
		if o.Parameters[i].Name == name {
			return &o.Parameters[i]
		}
	}
	return nil
}

// IsRouteParam reports whether name is declared with in: path.
func (o Operation) IsRouteParam(name string) bool {
	p := o.Parameter(name)
	return p != nil && p.In == LocationPath
}

// RequiredRouteParams lists the names of required path parameters in declaration order.
func (o Operation) RequiredRouteParams() []string {
	var names []string
	for _, p := range o.Parameters {
		if p.In == LocationPath && p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Response returns the response declared for the status code, or nil.
func (o Operation) Response(code string) *Response {
	for i := range o.Responses {
		if o.Responses[i].StatusCode == code {
			return &o.Responses[i]
		}
	}
	return nil
}

type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

type ParameterLocation string

const (
	LocationPath   ParameterLocation = "path"
	LocationQuery  ParameterLocation = "query"
	LocationHeader ParameterLocation = "header"
	LocationCookie ParameterLocation = "cookie"
)

type Parameter struct {
	Name        string
	In          ParameterLocation
	Description string
	Required    bool
	Deprecated  bool
	Schema      *Schema
	// Value is the editable default populated by opindex.Index.FindOperation.
	Value any
}

type RequestBody struct {
	Description string
	Required    bool
	Content     []MediaTypeContent
}

type MediaTypeContent struct {
	MediaType string
	Schema    *Schema
}

// ContentSchema returns the schema for the media type, or nil.
func (r *Response) ContentSchema(mediaType string) *Schema {
	for _, c := range r.Content {
		if c.MediaType == mediaType {
			return c.Schema
		}
	}
	return nil
}

type Response struct {
	StatusCode  string
	Description string
	Content     []MediaTypeContent
}
