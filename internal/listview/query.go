package listview

import (
	"net/url"
	"sort"
	"strings"
)

// Canonical names of the list state keys.
const (
	KeySearch = "Search"
	KeySortBy = "SortBy"
	KeyPage   = "Page"
)

// QueryMap maps short URL query keys to canonical state names.
type QueryMap map[string]string

// DefaultQueryMap is the query map every list page uses.
var DefaultQueryMap = QueryMap{
	"s":    KeySearch,
	"sort": KeySortBy,
	"p":    KeyPage,
}

// FilterMap maps each column's lower-cased name to the column name.
func FilterMap(columns []string) QueryMap {
	m := make(QueryMap, len(columns))
	for _, c := range columns {
		m[strings.ToLower(c)] = c
	}
	return m
}

// Merge returns a map holding the entries of m and other. Entries of m win.
func (m QueryMap) Merge(other QueryMap) QueryMap {
	out := make(QueryMap, len(m)+len(other))
	for k, v := range other {
		out[k] = v
	}
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ToCanonical keeps the first value of each known query key under its
// canonical name. Unknown keys are dropped.
func (m QueryMap) ToCanonical(q url.Values) map[string]string {
	state := make(map[string]string)
	for key, values := range q {
		name, ok := m[key]
		if !ok || len(values) == 0 {
			continue
		}
		state[name] = values[0]
	}
	return state
}

// FromCanonical is the inverse of ToCanonical. When several short keys share a
// canonical name the lexically smallest is used.
func (m QueryMap) FromCanonical(state map[string]string) url.Values {
	reverse := make(map[string]string, len(m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, taken := reverse[m[k]]; !taken {
			reverse[m[k]] = k
		}
	}

	q := make(url.Values)
	for name, value := range state {
		if key, ok := reverse[name]; ok {
			q.Set(key, value)
		}
	}
	return q
}
