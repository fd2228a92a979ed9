// Package specstore loads the API description of an API host, caches it in the
// client-local store and reloads it when the host reports a newer build.
package specstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/jellydator/ttlcache/v3"
	"github.com/kolah/oclist/internal/loader"
	"github.com/kolah/oclist/internal/logger"
	"github.com/kolah/oclist/internal/store"
	"github.com/kolah/oclist/internal/transport"
)

// KeyPrefix prefixes the store key of a cached description. At most one key
// with this prefix exists after a network load.
const KeyPrefix = "OcOpenApi."

// ErrSpecUnavailable wraps every failure to obtain a description.
var ErrSpecUnavailable = errors.New("api description unavailable")

// envelope is the cached form of a description.
type envelope struct {
	ServerURL string `json:"serverUrl"`
	Document  string `json:"document"`
}

type envResponse struct {
	BuildNumber string `json:"BuildNumber"`
}

// Store fetches and caches descriptions.
type Store struct {
	sender  transport.Sender
	kv      store.Store
	log     *charmlog.Logger
	metrics *Metrics

	interval time.Duration
	probes   *ttlcache.Cache[string, struct{}]

	mu sync.Mutex
}

type Option func(*Store)

// WithFreshnessInterval throttles freshness probes to one per base URL per d.
// Zero probes on every call.
func WithFreshnessInterval(d time.Duration) Option {
	return func(s *Store) { s.interval = d }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithLogger(l *charmlog.Logger) Option {
	return func(s *Store) { s.log = l }
}

func New(sender transport.Sender, kv store.Store, opts ...Option) *Store {
	s := &Store{
		sender: sender,
		kv:     kv,
		log:    logger.New(logger.TestConfig()),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval > 0 {
		s.probes = ttlcache.New[string, struct{}](
			ttlcache.WithTTL[string, struct{}](s.interval),
			ttlcache.WithDisableTouchOnHit[string, struct{}](),
		)
	}
	return s
}

// Load returns the description for baseURL, preferring the cached copy. A
// cached entry that no longer decodes is replaced by a fresh fetch.
func (s *Store) Load(ctx context.Context, baseURL string) (*Description, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if desc := s.cached(ctx, baseURL); desc != nil {
		s.metrics.load(sourceCache)
		return desc, nil
	}
	return s.fetch(ctx, baseURL)
}

// Refresh discards any cached description and fetches baseURL's again.
func (s *Store) Refresh(ctx context.Context, baseURL string) (*Description, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetch(ctx, baseURL)
}

// Import caches the description stored in the file at path as baseURL's,
// replacing any cached description. The host is not contacted.
func (s *Store) Import(ctx context.Context, baseURL, path string) (*Description, error) {
	result, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpecUnavailable, err)
	}
	desc, err := fromResult(result, apiURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpecUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.load(sourceFile)
	if err := s.persist(ctx, baseURL, desc); err != nil {
		return nil, fmt.Errorf("caching api description: %w", err)
	}
	return desc, nil
}

// EnsureFresh asks the host for its build number and reloads when it differs
// from desc's version. The returned bool reports a reload. Descriptions
// without a four-part version, or loaded for another host, are returned
// unchanged. On a failed probe or reload desc is returned with the error.
func (s *Store) EnsureFresh(ctx context.Context, baseURL string, desc *Description) (*Description, bool, error) {
	if !desc.checkable(baseURL) {
		return desc, false, nil
	}
	if s.recentlyProbed(baseURL) {
		return desc, false, nil
	}

	resp, err := s.sender.Send(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    strings.TrimSuffix(baseURL, "/") + "/env",
	})
	if err != nil {
		return desc, false, fmt.Errorf("%w: checking build number: %w", ErrSpecUnavailable, err)
	}
	var env envResponse
	if err := resp.JSON(&env); err != nil {
		return desc, false, fmt.Errorf("%w: checking build number: %w", ErrSpecUnavailable, err)
	}
	s.markProbed(baseURL)
	if env.BuildNumber == "" || env.BuildNumber == desc.Version() {
		return desc, false, nil
	}

	s.log.Info("api description is outdated", "version", desc.Version(), "build", env.BuildNumber)
	s.metrics.reload()

	s.mu.Lock()
	defer s.mu.Unlock()
	fresh, err := s.fetch(ctx, baseURL)
	if err != nil {
		return desc, false, err
	}
	return fresh, true, nil
}

// recentlyProbed reports whether baseURL answered a probe within the
// freshness interval. Failed probes are not recorded.
func (s *Store) recentlyProbed(baseURL string) bool {
	return s.probes != nil && s.probes.Get(baseURL) != nil
}

func (s *Store) markProbed(baseURL string) {
	if s.probes != nil {
		s.probes.Set(baseURL, struct{}{}, ttlcache.DefaultTTL)
	}
}

func (s *Store) cached(ctx context.Context, baseURL string) *Description {
	data, ok, err := s.kv.Get(ctx, KeyPrefix+baseURL)
	if err != nil {
		s.log.Warn("reading cached api description", "base_url", baseURL, "err", err)
		return nil
	}
	if !ok {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.log.Warn("discarding cached api description", "base_url", baseURL, "err", err)
		return nil
	}
	desc, err := parse([]byte(env.Document), env.ServerURL)
	if err != nil {
		s.log.Warn("discarding cached api description", "base_url", baseURL, "err", err)
		return nil
	}
	return desc
}

// fetch downloads, parses and caches the description. Callers hold s.mu.
func (s *Store) fetch(ctx context.Context, baseURL string) (*Description, error) {
	s.log.Debug("fetching api description", "base_url", baseURL)

	resp, err := s.sender.Send(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    apiURL(baseURL) + "/openapi/v3",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpecUnavailable, err)
	}
	desc, err := parse(resp.Body, apiURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpecUnavailable, err)
	}
	s.metrics.load(sourceNetwork)

	if err := s.persist(ctx, baseURL, desc); err != nil {
		s.log.Warn("caching api description", "base_url", baseURL, "err", err)
	}
	return desc, nil
}

// persist replaces every cached description with desc.
func (s *Store) persist(ctx context.Context, baseURL string, desc *Description) error {
	keys, err := s.kv.Keys(ctx, KeyPrefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.kv.Delete(ctx, key); err != nil {
			return err
		}
	}
	data, err := json.Marshal(envelope{ServerURL: desc.serverURL, Document: string(desc.raw)})
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, KeyPrefix+baseURL, data)
}
