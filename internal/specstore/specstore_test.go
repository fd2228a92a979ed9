package specstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kolah/oclist/internal/spectest"
	"github.com/kolah/oclist/internal/store"
	"github.com/kolah/oclist/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv     *spectest.Server
	kv      *store.Memory
	metrics *Metrics
	store   *Store
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		srv:     spectest.NewServer(t),
		kv:      store.NewMemory(),
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	opts = append([]Option{WithMetrics(f.metrics)}, opts...)
	f.store = New(transport.NewResty(5*time.Second), f.kv, opts...)
	return f
}

func (f *fixture) cachedEnvelope(t *testing.T) envelope {
	t.Helper()
	data, ok, err := f.kv.Get(context.Background(), KeyPrefix+f.srv.URL)
	require.NoError(t, err)
	require.True(t, ok)
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestLoadFetchesAndCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	desc, err := f.store.Load(ctx, f.srv.URL)
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4", desc.Version())
	require.Equal(t, f.srv.URL+"/v1", desc.ServerURL())
	require.Equal(t, spectest.OrderCloud, desc.Raw())
	require.NotEmpty(t, desc.Index().Operations)
	require.EqualValues(t, 1, f.srv.SpecHits.Load())

	env := f.cachedEnvelope(t)
	require.Equal(t, f.srv.URL+"/v1", env.ServerURL)
	require.Equal(t, string(spectest.OrderCloud), env.Document)

	again, err := f.store.Load(ctx, f.srv.URL)
	require.NoError(t, err)
	require.Equal(t, f.srv.URL+"/v1", again.ServerURL())
	require.EqualValues(t, 1, f.srv.SpecHits.Load(), "second load is served from the store")

	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Loads.WithLabelValues(sourceNetwork)))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Loads.WithLabelValues(sourceCache)))
}

func TestLoadEvictsOtherDescriptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.kv.Set(ctx, KeyPrefix+"https://old.example.com", []byte(`{}`)))
	require.NoError(t, f.kv.Set(ctx, "Buyers.List:tableColumns", []byte(`["ID"]`)))

	_, err := f.store.Load(ctx, f.srv.URL)
	require.NoError(t, err)

	keys, err := f.kv.Keys(ctx, KeyPrefix)
	require.NoError(t, err)
	require.Equal(t, []string{KeyPrefix + f.srv.URL}, keys)

	_, ok, err := f.kv.Get(ctx, "Buyers.List:tableColumns")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLoadReplacesUndecodableCache(t *testing.T) {
	tests := []struct {
		name   string
		cached string
	}{
		{"not json", `{{{`},
		{"not a document", `{"serverUrl":"x","document":"just text"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			require.NoError(t, f.kv.Set(ctx, KeyPrefix+f.srv.URL, []byte(tt.cached)))

			desc, err := f.store.Load(ctx, f.srv.URL)
			require.NoError(t, err)
			require.Equal(t, "1.2.3.4", desc.Version())
			require.EqualValues(t, 1, f.srv.SpecHits.Load())
			require.Equal(t, string(spectest.OrderCloud), f.cachedEnvelope(t).Document)
		})
	}
}

func TestLoadFailures(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		boom := errors.New("connection refused")
		s := New(transport.SenderFunc(func(context.Context, *transport.Request) (*transport.Response, error) {
			return nil, boom
		}), store.NewMemory())

		desc, err := s.Load(context.Background(), "https://api.example.com")
		require.Nil(t, desc)
		require.ErrorIs(t, err, ErrSpecUnavailable)
		require.ErrorIs(t, err, boom)
	})

	t.Run("unsupported document", func(t *testing.T) {
		f := newFixture(t)
		f.srv.SetDocument([]byte("swagger: \"2.0\"\ninfo:\n  title: x\n  version: \"1\"\npaths: {}\n"))

		_, err := f.store.Load(context.Background(), f.srv.URL)
		require.ErrorIs(t, err, ErrSpecUnavailable)

		keys, err := f.kv.Keys(context.Background(), KeyPrefix)
		require.NoError(t, err)
		require.Empty(t, keys)
	})
}

func TestEnsureFreshReloadsOnNewBuild(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	desc, err := f.store.Load(ctx, f.srv.URL)
	require.NoError(t, err)

	same, reloaded, err := f.store.EnsureFresh(ctx, f.srv.URL, desc)
	require.NoError(t, err)
	require.False(t, reloaded)
	require.Same(t, desc, same)
	require.EqualValues(t, 1, f.srv.EnvHits.Load())

	f.srv.SetBuildNumber("1.2.3.5")
	f.srv.SetDocument(spectest.WithVersion("1.2.3.5"))

	fresh, reloaded, err := f.store.EnsureFresh(ctx, f.srv.URL, desc)
	require.NoError(t, err)
	require.True(t, reloaded)
	require.Equal(t, "1.2.3.5", fresh.Version())
	require.EqualValues(t, 2, f.srv.SpecHits.Load())
	require.Contains(t, f.cachedEnvelope(t).Document, `version: "1.2.3.5"`)
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Reloads))
}

func TestEnsureFreshSkipsUncheckableDescriptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.srv.SetDocument(spectest.WithVersion("1.2"))
	short, err := f.store.Load(ctx, f.srv.URL)
	require.NoError(t, err)

	got, reloaded, err := f.store.EnsureFresh(ctx, f.srv.URL, short)
	require.NoError(t, err)
	require.False(t, reloaded)
	require.Same(t, short, got)

	f.srv.SetDocument(spectest.OrderCloud)
	desc, err := f.store.Refresh(ctx, f.srv.URL)
	require.NoError(t, err)

	got, reloaded, err = f.store.EnsureFresh(ctx, "https://elsewhere.example.com", desc)
	require.NoError(t, err)
	require.False(t, reloaded)
	require.Same(t, desc, got)

	got, reloaded, err = f.store.EnsureFresh(ctx, f.srv.URL, nil)
	require.NoError(t, err)
	require.False(t, reloaded)
	require.Nil(t, got)

	require.EqualValues(t, 0, f.srv.EnvHits.Load())
}

func TestEnsureFreshIgnoresEmptyBuildNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	desc, err := f.store.Load(ctx, f.srv.URL)
	require.NoError(t, err)

	f.srv.SetBuildNumber("")
	_, reloaded, err := f.store.EnsureFresh(ctx, f.srv.URL, desc)
	require.NoError(t, err)
	require.False(t, reloaded)
	require.EqualValues(t, 1, f.srv.SpecHits.Load())
}

func TestEnsureFreshThrottle(t *testing.T) {
	f := newFixture(t, WithFreshnessInterval(time.Hour))
	ctx := context.Background()

	desc, err := f.store.Load(ctx, f.srv.URL)
	require.NoError(t, err)

	for range 3 {
		_, _, err := f.store.EnsureFresh(ctx, f.srv.URL, desc)
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, f.srv.EnvHits.Load())
}

func TestEnsureFreshRetriesFailedProbe(t *testing.T) {
	f := newFixture(t, WithFreshnessInterval(time.Hour))
	ctx := context.Background()

	desc, err := f.store.Load(ctx, f.srv.URL)
	require.NoError(t, err)

	f.srv.SetEnvDown(true)
	for range 2 {
		_, _, err := f.store.EnsureFresh(ctx, f.srv.URL, desc)
		require.ErrorIs(t, err, ErrSpecUnavailable)
	}
	require.EqualValues(t, 2, f.srv.EnvHits.Load())

	f.srv.SetEnvDown(false)
	for range 2 {
		_, _, err := f.store.EnsureFresh(ctx, f.srv.URL, desc)
		require.NoError(t, err)
	}
	require.EqualValues(t, 3, f.srv.EnvHits.Load())
}

func TestImport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.kv.Set(ctx, KeyPrefix+"https://other.example.com", []byte("{}")))

	path := filepath.Join(t.TempDir(), "ordercloud.yaml")
	require.NoError(t, os.WriteFile(path, spectest.WithVersion("1.2.3.9"), 0o600))

	desc, err := f.store.Import(ctx, f.srv.URL, path)
	require.NoError(t, err)
	require.Equal(t, "1.2.3.9", desc.Version())
	require.Equal(t, f.srv.URL+"/v1", desc.ServerURL())
	require.EqualValues(t, 0, f.srv.SpecHits.Load())

	keys, err := f.kv.Keys(ctx, KeyPrefix)
	require.NoError(t, err)
	require.Equal(t, []string{KeyPrefix + f.srv.URL}, keys)
	require.Equal(t, f.srv.URL+"/v1", f.cachedEnvelope(t).ServerURL)

	loaded, err := f.store.Load(ctx, f.srv.URL)
	require.NoError(t, err)
	require.Equal(t, "1.2.3.9", loaded.Version())
	require.EqualValues(t, 0, f.srv.SpecHits.Load())
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Loads.WithLabelValues(sourceFile)))

	_, err = f.store.Import(ctx, f.srv.URL, filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, ErrSpecUnavailable)
}

func TestNilDescription(t *testing.T) {
	var desc *Description
	require.Nil(t, desc.Spec())
	require.Nil(t, desc.Raw())
	require.Empty(t, desc.Version())
	require.Empty(t, desc.ServerURL())
	require.Empty(t, desc.Index().Operations)
	require.Empty(t, desc.Index().Resources)
}
