package specstore

import (
	"strings"
	"sync"

	"github.com/kolah/oclist/internal/loader"
	"github.com/kolah/oclist/internal/model"
	"github.com/kolah/oclist/internal/opindex"
)

// Description is a loaded API description. All accessors are safe on a nil
// *Description, which behaves as a description with no operations.
type Description struct {
	spec      *model.Spec
	raw       []byte
	serverURL string

	indexOnce sync.Once
	index     *opindex.Index
}

// parse builds a Description from raw document bytes. A non-empty serverURL
// replaces the first server entry.
func parse(raw []byte, serverURL string) (*Description, error) {
	result, err := loader.LoadBytes(raw)
	if err != nil {
		return nil, err
	}
	return fromResult(result, serverURL)
}

func fromResult(result *loader.Result, serverURL string) (*Description, error) {
	raw := result.RawData
	spec, err := loader.Transform(result)
	if err != nil {
		return nil, err
	}
	if serverURL != "" && len(spec.Servers) > 0 {
		spec.Servers[0].URL = serverURL
	} else {
		serverURL = ""
	}
	return &Description{spec: spec, raw: raw, serverURL: serverURL}, nil
}

func (d *Description) Spec() *model.Spec {
	if d == nil {
		return nil
	}
	return d.spec
}

// Raw returns the document bytes as served by the API.
func (d *Description) Raw() []byte {
	if d == nil {
		return nil
	}
	return d.raw
}

// Version returns info.version.
func (d *Description) Version() string {
	if d == nil || d.spec == nil {
		return ""
	}
	return d.spec.Info.Version
}

// ServerURL returns the first server URL after rewriting.
func (d *Description) ServerURL() string {
	if d == nil || d.spec == nil {
		return ""
	}
	return d.spec.ServerURL()
}

// Index returns the operation index, built on first use.
func (d *Description) Index() *opindex.Index {
	if d == nil {
		return opindex.Build(nil)
	}
	d.indexOnce.Do(func() {
		d.index = opindex.Build(d.spec)
	})
	return d.index
}

// checkable reports whether the description carries a build-number version
// and was loaded for baseURL. Only such descriptions take part in freshness
// checks.
func (d *Description) checkable(baseURL string) bool {
	if d == nil {
		return false
	}
	return len(strings.Split(d.Version(), ".")) == 4 && d.ServerURL() == apiURL(baseURL)
}

func apiURL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + "/v1"
}
