// Package listview drives a paginated, searchable, sortable list of one
// resource: it turns URL query state into a list request, tracks the load
// state and renders cells by field kind.
package listview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
	"github.com/kolah/oclist/internal/fieldschema"
	"github.com/kolah/oclist/internal/logger"
	"github.com/kolah/oclist/internal/model"
	"github.com/kolah/oclist/internal/request"
	"github.com/kolah/oclist/internal/store"
	"github.com/kolah/oclist/internal/transport"
	"github.com/kolah/oclist/internal/validate"
	"github.com/samber/lo"
)

// ErrStale is returned by Retrieve when a later call started before this one
// finished. The stale response is discarded.
var ErrStale = errors.New("stale list response discarded")

type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// hiddenColumns are never offered as columns.
var hiddenColumns = []string{"xp", "Password"}

const paramFilters = "filters"

// Config describes the list a Controller drives.
type Config struct {
	Operation model.Operation
	Sender    transport.Sender
	Store     store.Store
	// Route holds path parameter values, matched to declared names
	// case-insensitively.
	Route map[string]string
	Token string
	// BaseURL is used when the token names no issuer, e.g. "https://api.example.com/v1".
	BaseURL   string
	Validator *validate.Validator
	Logger    *charmlog.Logger
}

// Controller is the list state machine of one operation. It is safe for
// concurrent use.
type Controller struct {
	op        model.Operation
	sender    transport.Sender
	kv        store.Store
	route     map[string]string
	token     string
	baseURL   string
	validator *validate.Validator
	log       *charmlog.Logger

	fields    map[string]fieldschema.Field
	available []string
	sortable  []string
	queryMap  QueryMap
	filterMap QueryMap

	mu      sync.Mutex
	seq     uint64
	state   State
	err     error
	page    *Page
	columns []string
}

// New creates a controller and loads the stored column preference.
func New(ctx context.Context, cfg Config) (*Controller, error) {
	if cfg.Sender == nil {
		return nil, fmt.Errorf("list %s: no sender", cfg.Operation.ID)
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemory()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.New(logger.TestConfig())
	}

	fields := lo.Filter(fieldschema.ListFields(&cfg.Operation), func(f fieldschema.Field, _ int) bool {
		return !lo.Contains(hiddenColumns, f.Name)
	})

	c := &Controller{
		op:        cfg.Operation,
		sender:    cfg.Sender,
		kv:        cfg.Store,
		route:     cfg.Route,
		token:     cfg.Token,
		baseURL:   cfg.BaseURL,
		validator: cfg.Validator,
		log:       cfg.Logger.With("operation", cfg.Operation.ID),
		fields:    lo.KeyBy(fields, func(f fieldschema.Field) string { return f.Name }),
		available: fieldschema.Names(fields),
		sortable:  sortByEnum(&cfg.Operation),
		queryMap:  DefaultQueryMap,
	}
	c.filterMap = FilterMap(c.available)

	columns, err := c.loadColumns(ctx)
	if err != nil {
		return nil, err
	}
	c.columns = columns
	return c, nil
}

func sortByEnum(op *model.Operation) []string {
	p := op.Parameter("sortBy")
	if p == nil || p.Schema == nil {
		return nil
	}
	return p.Schema.Items.EnumStrings()
}

// Operation returns the operation the controller lists.
func (c *Controller) Operation() model.Operation {
	return c.op
}

// QueryMap returns the query keys the controller understands, filter keys included.
func (c *Controller) QueryMap() QueryMap {
	return c.queryMap.Merge(c.filterMap)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the failure of the last completed retrieval, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Page returns the last page retrieved, or nil.
func (c *Controller) Page() *Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// CurrentPage returns the requested page number, 1 when absent.
func (c *Controller) CurrentPage(q url.Values) int {
	n, err := strconv.Atoi(c.queryMap.ToCanonical(q)[KeyPage])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Params maps canonical list state onto the operation's parameters in
// declaration order. Route values come from the controller's route map.
func (c *Controller) Params(state map[string]string) []request.Param {
	canonical := canonicalOnly(state, c.queryMap)
	var params []request.Param
	for _, p := range c.op.Parameters {
		var value any
		switch {
		case p.In == model.LocationPath:
			if v, ok := lookupFold(c.route, p.Name); ok {
				value = v
			}
		case p.Name == paramFilters:
			if filters := c.filters(state); len(filters) > 0 {
				value = filters
			}
		default:
			v, ok := lookupFold(canonical, p.Name)
			if !ok {
				continue
			}
			if p.Schema != nil && p.Schema.Type == model.TypeArray {
				value = splitList(v)
			} else {
				value = v
			}
		}
		params = append(params, request.Param{Name: p.Name, Value: value})
	}
	return params
}

// filters returns one pair per column named in state, in column order.
func (c *Controller) filters(state map[string]string) []request.Filter {
	var out []request.Filter
	for _, name := range c.available {
		if v, ok := state[name]; ok && v != "" {
			out = append(out, request.Filter{Key: name, Value: v})
		}
	}
	return out
}

// canonicalOnly restricts state to the names of m.
func canonicalOnly(state map[string]string, m QueryMap) map[string]string {
	out := make(map[string]string)
	for _, name := range m {
		if v, ok := state[name]; ok {
			out[name] = v
		}
	}
	return out
}

// RouteValue returns the value route holds for the path parameter name,
// matching keys case-insensitively.
func RouteValue(route map[string]string, name string) string {
	v, _ := lookupFold(route, name)
	return v
}

func lookupFold(m map[string]string, name string) (string, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

func splitList(v string) []string {
	return lo.Filter(strings.Split(v, ","), func(s string, _ int) bool { return s != "" })
}

// Retrieve requests the page described by q. A transport or validation
// failure moves the controller to StateError and yields an empty page with a
// nil error; the failure is available from Err. ErrStale reports that a later
// Retrieve superseded this one.
func (c *Controller) Retrieve(ctx context.Context, q url.Values) (*Page, error) {
	state := c.QueryMap().ToCanonical(q)

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.state = StateLoading
	c.mu.Unlock()

	out, err := request.Build(&c.op, c.token, c.Params(state), nil)
	if err != nil {
		return c.fail(seq, err)
	}
	if out.BaseURL == "" {
		out.BaseURL = c.baseURL
	}

	if c.validator != nil {
		httpReq, err := out.HTTPRequest(ctx)
		if err != nil {
			return c.fail(seq, err)
		}
		if err := c.validator.Validate(httpReq); err != nil {
			return c.fail(seq, err)
		}
	}

	c.log.Debug("retrieving list", "url", out.URL())
	resp, err := c.sender.Send(ctx, out.Transport())
	if err != nil {
		return c.fail(seq, err)
	}

	page := &Page{}
	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	if err := dec.Decode(page); err != nil {
		return c.fail(seq, fmt.Errorf("decoding list page: %w", err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return nil, ErrStale
	}
	c.state = StateReady
	c.err = nil
	c.page = page
	return page, nil
}

func (c *Controller) fail(seq uint64, err error) (*Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return nil, ErrStale
	}
	c.log.Error("retrieving list failed", "err", err)
	c.state = StateError
	c.err = err
	c.page = &Page{}
	return c.page, nil
}

// FilterChip is an active column filter.
type FilterChip struct {
	Key    string
	Column string
	Value  string
}

// FilterChips returns the query keys that name columns, in column order.
func (c *Controller) FilterChips(q url.Values) []FilterChip {
	var chips []FilterChip
	for _, column := range c.available {
		key := strings.ToLower(column)
		if _, shadowed := c.queryMap[key]; shadowed {
			continue
		}
		if v := q.Get(key); v != "" {
			chips = append(chips, FilterChip{Key: key, Column: column, Value: v})
		}
	}
	return chips
}

// LinkPath returns the detail path of the item with the given ID.
func (c *Controller) LinkPath(id string) string {
	var route []request.Param
	for name, v := range c.route {
		if p := c.routeParam(name); p != "" {
			route = append(route, request.Param{Kind: request.RouteParam, Name: p, Value: v})
		}
	}
	return request.RoutingURL(c.op.Path, route) + "/" + url.PathEscape(id)
}

// routeParam returns the declared path parameter name matching name.
func (c *Controller) routeParam(name string) string {
	for _, p := range c.op.Parameters {
		if p.In == model.LocationPath && strings.EqualFold(p.Name, name) {
			return p.Name
		}
	}
	return ""
}
