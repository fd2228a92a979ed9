// Package spectest provides an OrderCloud-shaped API description and a fake
// API server for tests.
package spectest

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

//go:embed ordercloud.yaml
var OrderCloud []byte

// WithVersion returns the fixture with info.version replaced.
func WithVersion(version string) []byte {
	return []byte(strings.Replace(string(OrderCloud), `version: "1.2.3.4"`, `version: "`+version+`"`, 1))
}

// Server is a fake API host serving /v1/openapi/v3, /env and canned list responses.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	document    []byte
	buildNumber string
	envDown     bool
	lists       map[string]any
	requests    []*http.Request

	SpecHits atomic.Int32
	EnvHits  atomic.Int32
}

// NewServer starts a server that serves the fixture document at build 1.2.3.4.
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		document:    OrderCloud,
		buildNumber: "1.2.3.4",
		lists:       make(map[string]any),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// SetDocument replaces the served description.
func (s *Server) SetDocument(doc []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.document = doc
}

// SetBuildNumber changes the value reported by /env.
func (s *Server) SetBuildNumber(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildNumber = v
}

// SetEnvDown makes /env answer 503 while down is true.
func (s *Server) SetEnvDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envDown = down
}

// SetList makes GET {path} answer with body encoded as JSON.
func (s *Server) SetList(path string, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[path] = body
}

// Requests returns the API requests received outside the description endpoints.
func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.URL.Path {
	case "/v1/openapi/v3":
		s.SpecHits.Add(1)
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(s.document)
		return
	case "/env":
		s.EnvHits.Add(1)
		if s.envDown {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"BuildNumber": s.buildNumber})
		return
	}

	s.requests = append(s.requests, r.Clone(r.Context()))
	body, ok := s.lists[r.URL.Path]
	if !ok {
		http.Error(w, `{"Errors":[{"ErrorCode":"NotFound"}]}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
