package listview

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/kolah/oclist/internal/loader"
	"github.com/kolah/oclist/internal/model"
	"github.com/kolah/oclist/internal/opindex"
	"github.com/kolah/oclist/internal/request"
	"github.com/kolah/oclist/internal/spectest"
	"github.com/kolah/oclist/internal/store"
	"github.com/kolah/oclist/internal/transport"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://api.example.com/v1"

func listOperation(t *testing.T, id string) model.Operation {
	t.Helper()
	result, err := loader.LoadBytes(spectest.OrderCloud)
	require.NoError(t, err)
	spec, err := loader.Transform(result)
	require.NoError(t, err)
	op, ok := opindex.Build(spec).ListOperation(id)
	require.True(t, ok, id)
	return op
}

// recorder answers every request with body and remembers the requests.
type recorder struct {
	mu       sync.Mutex
	body     []byte
	err      error
	requests []*transport.Request
}

func newRecorder(t *testing.T, page any) *recorder {
	t.Helper()
	body, err := json.Marshal(page)
	require.NoError(t, err)
	return &recorder{body: body}
}

func (r *recorder) Send(_ context.Context, req *transport.Request) (*transport.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	return &transport.Response{StatusCode: 200, Body: r.body}, nil
}

func (r *recorder) urls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.requests))
	for i, req := range r.requests {
		out[i] = req.FullURL()
	}
	return out
}

func newController(t *testing.T, opID string, sender transport.Sender, kv store.Store, edit ...func(*Config)) *Controller {
	t.Helper()
	cfg := Config{
		Operation: listOperation(t, opID),
		Sender:    sender,
		Store:     kv,
		BaseURL:   testBaseURL,
	}
	for _, e := range edit {
		e(&cfg)
	}
	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	return c
}

func buyersPage() map[string]any {
	return map[string]any{
		"Meta": map[string]any{
			"Page": 2, "PageSize": 20, "TotalCount": 45, "TotalPages": 3, "ItemRange": []int{21, 40},
		},
		"Items": []map[string]any{
			{"ID": "b1", "Name": "Acme", "Active": true},
			{"ID": "b2", "Name": "Globex", "Active": false},
		},
	}
}

func paramValue(params []request.Param, name string) (any, bool) {
	p, ok := lo.Find(params, func(p request.Param) bool { return p.Name == name })
	return p.Value, ok
}
