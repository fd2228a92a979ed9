package app

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/kolah/oclist/internal/config"
	"github.com/kolah/oclist/internal/listview"
	"github.com/kolah/oclist/internal/logger"
	"github.com/kolah/oclist/internal/spectest"
	"github.com/kolah/oclist/internal/store"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		BaseURL: baseURL,
		Store:   config.StoreConfig{Driver: store.DriverMemory},
		HTTP:    config.HTTPConfig{Timeout: 5 * time.Second},
		Log:     config.LogConfig{Level: "disabled"},
	}
}

func newTestApp(t *testing.T, edit ...func(*config.Config)) (*App, *spectest.Server) {
	t.Helper()
	srv := spectest.NewServer(t)
	cfg := testConfig(srv.URL)
	for _, e := range edit {
		e(cfg)
	}
	a := NewWith(cfg, logger.New(logger.TestConfig()), store.NewMemory(), nil)
	t.Cleanup(func() { require.NoError(t, a.Close()) })
	return a, srv
}

func TestNew(t *testing.T) {
	a, err := New(testConfig("https://api.example.com"), io.Discard)
	require.NoError(t, err)
	require.IsType(t, &store.Memory{}, a.Store)
	require.NoError(t, a.Close())

	cfg := testConfig("https://api.example.com")
	cfg.Log.Level = "loud"
	_, err = New(cfg, io.Discard)
	require.Error(t, err)

	cfg = testConfig("https://api.example.com")
	cfg.Store.Driver = "sqlite"
	_, err = New(cfg, io.Discard)
	require.Error(t, err)
}

func TestDescription(t *testing.T) {
	a, srv := newTestApp(t)
	ctx := context.Background()

	desc, err := a.Description(ctx)
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4", desc.Version())
	require.EqualValues(t, 1, srv.SpecHits.Load())
	require.EqualValues(t, 1, srv.EnvHits.Load())

	srv.SetBuildNumber("1.2.3.5")
	srv.SetDocument(spectest.WithVersion("1.2.3.5"))

	desc, err = a.Description(ctx)
	require.NoError(t, err)
	require.Equal(t, "1.2.3.5", desc.Version())
	require.EqualValues(t, 2, srv.SpecHits.Load())
}

func TestRefresh(t *testing.T) {
	a, srv := newTestApp(t)
	ctx := context.Background()

	_, err := a.Description(ctx)
	require.NoError(t, err)
	_, err = a.Refresh(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, srv.SpecHits.Load())
}

func TestController(t *testing.T) {
	a, srv := newTestApp(t, func(c *config.Config) { c.ValidateRequests = true })
	ctx := context.Background()
	srv.SetList("/v1/buyers/b1/users", map[string]any{
		"Meta":  map[string]any{"Page": 1, "PageSize": 20, "TotalCount": 1, "TotalPages": 1, "ItemRange": []int{1, 1}},
		"Items": []map[string]any{{"ID": "u1", "Username": "jo", "Active": true}},
	})

	desc, err := a.Description(ctx)
	require.NoError(t, err)

	_, err = a.Controller(ctx, desc, "Users.Nope", nil)
	require.Error(t, err)

	_, err = a.Controller(ctx, desc, "Buyers.Create", nil)
	require.Error(t, err)

	_, err = a.Controller(ctx, desc, "Users.List", nil)
	require.ErrorContains(t, err, "buyerID")

	c, err := a.Controller(ctx, desc, "Users.List", map[string]string{"buyerID": "b1"})
	require.NoError(t, err)

	_, err = a.Controller(ctx, desc, "Users.List", map[string]string{"buyerid": "b1"})
	require.NoError(t, err)

	page, err := c.Retrieve(ctx, url.Values{"s": {"jo"}})
	require.NoError(t, err)
	require.Equal(t, listview.StateReady, c.State())
	require.Equal(t, "1 - 1 of 1", page.Summary())
	require.Equal(t, "jo", page.Items[0]["Username"])
}

func TestDumpMetrics(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	_, err := a.Description(ctx)
	require.NoError(t, err)
	_, err = a.Description(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.DumpMetrics(&buf))
	out := buf.String()
	require.Contains(t, out, `oclist_spec_loads_total{source="network"} 1`)
	require.Contains(t, out, `oclist_spec_loads_total{source="cache"} 1`)
	require.Contains(t, out, `oclist_transport_requests_total{method="GET",status="200"}`)
}
