// Package app wires configuration into the running pieces: logger, store,
// transport, description store and list controllers.
package app

import (
	"context"
	"fmt"
	"io"

	charmlog "github.com/charmbracelet/log"
	"github.com/kolah/oclist/internal/config"
	"github.com/kolah/oclist/internal/listview"
	"github.com/kolah/oclist/internal/logger"
	"github.com/kolah/oclist/internal/specstore"
	"github.com/kolah/oclist/internal/store"
	"github.com/kolah/oclist/internal/transport"
	"github.com/kolah/oclist/internal/validate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

type App struct {
	Config   *config.Config
	Logger   *charmlog.Logger
	Registry *prometheus.Registry
	Store    store.Store
	Sender   transport.Sender
	Specs    *specstore.Store
}

// New builds the application. Logs go to logOut.
func New(cfg *config.Config, logOut io.Writer) (*App, error) {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	log := logger.New(&logger.Config{Level: level, Output: logOut, JSON: cfg.Log.JSON})

	kv, err := store.Open(cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return NewWith(cfg, log, kv, nil), nil
}

// NewWith builds the application around an existing logger and store. A nil
// sender means a resty client configured from cfg.
func NewWith(cfg *config.Config, log *charmlog.Logger, kv store.Store, sender transport.Sender) *App {
	reg := prometheus.NewRegistry()
	if sender == nil {
		sender = transport.NewResty(cfg.HTTP.Timeout,
			transport.WithMetrics(transport.NewMetrics(reg)),
			transport.WithDebug(cfg.Log.Level == string(logger.DebugLevel)),
		)
	}

	specs := specstore.New(sender, kv,
		specstore.WithFreshnessInterval(cfg.Spec.FreshnessInterval),
		specstore.WithMetrics(specstore.NewMetrics(reg)),
		specstore.WithLogger(log),
	)

	return &App{
		Config:   cfg,
		Logger:   log,
		Registry: reg,
		Store:    kv,
		Sender:   sender,
		Specs:    specs,
	}
}

// Description loads the API description of the configured host and reloads
// it when the host reports a newer build. A failed freshness check is logged
// and the loaded description kept.
func (a *App) Description(ctx context.Context) (*specstore.Description, error) {
	desc, err := a.Specs.Load(ctx, a.Config.BaseURL)
	if err != nil {
		return nil, err
	}
	fresh, reloaded, err := a.Specs.EnsureFresh(ctx, a.Config.BaseURL, desc)
	if err != nil {
		a.Logger.Warn("checking api description freshness", "err", err)
		return desc, nil
	}
	if reloaded {
		a.Logger.Info("api description reloaded", "version", fresh.Version())
	}
	return fresh, nil
}

// Refresh discards the cached description and fetches it again.
func (a *App) Refresh(ctx context.Context) (*specstore.Description, error) {
	return a.Specs.Refresh(ctx, a.Config.BaseURL)
}

// Import caches the description in the file at path for the configured host.
func (a *App) Import(ctx context.Context, path string) (*specstore.Description, error) {
	return a.Specs.Import(ctx, a.Config.BaseURL, path)
}

// Controller creates the list controller for a GET operation. Every required
// path parameter must have a value in route.
func (a *App) Controller(ctx context.Context, desc *specstore.Description, operationID string, route map[string]string) (*listview.Controller, error) {
	op, ok := desc.Index().ListOperation(operationID)
	if !ok {
		return nil, fmt.Errorf("no list operation %q", operationID)
	}
	for _, name := range op.RequiredRouteParams() {
		if listview.RouteValue(route, name) == "" {
			return nil, fmt.Errorf("%s requires path parameter %s", operationID, name)
		}
	}

	var v *validate.Validator
	if a.Config.ValidateRequests {
		var err error
		v, err = validate.New(desc.Raw())
		if err != nil {
			return nil, fmt.Errorf("building request validator: %w", err)
		}
	}

	return listview.New(ctx, listview.Config{
		Operation: op,
		Sender:    a.Sender,
		Store:     a.Store,
		Route:     route,
		Token:     a.Config.Token,
		BaseURL:   desc.ServerURL(),
		Validator: v,
		Logger:    a.Logger,
	})
}

// DumpMetrics writes every registered metric in the text exposition format.
func (a *App) DumpMetrics(w io.Writer) error {
	families, err := a.Registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	encoder := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			return fmt.Errorf("encoding metrics: %w", err)
		}
	}
	return nil
}

// Close releases the store's connections, if it holds any.
func (a *App) Close() error {
	if c, ok := a.Store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
