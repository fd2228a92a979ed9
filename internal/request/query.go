package request

import (
	"strings"
)

const (
	paramFilters  = "filters"
	paramSearchOn = "searchOn"
	paramSortBy   = "sortBy"
)

// QueryString serializes query parameters in order:
//   - "filters" renders each complete pair as key=value
//   - array "searchOn" and "sortBy" render as one comma-joined list
//   - other arrays repeat name=value per element
//   - scalars render as name=value
//
// Absent values (see Truthy) are skipped entirely.
func QueryString(params []Param) string {
	var parts []string
	for _, p := range params {
		if !Truthy(p.Value) {
			continue
		}
		if s := serialize(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "&")
}

func serialize(p Param) string {
	if p.Name == paramFilters {
		return serializeFilters(p.Value)
	}

	items, isArray := elements(p.Value)
	if !isArray {
		return p.Name + "=" + EncodeURIComponent(stringify(p.Value))
	}

	if p.Name == paramSearchOn || p.Name == paramSortBy {
		encoded := make([]string, len(items))
		for i, item := range items {
			encoded[i] = EncodeURIComponent(stringify(item))
		}
		return p.Name + "=" + strings.Join(encoded, ",")
	}

	pairs := make([]string, len(items))
	for i, item := range items {
		pairs[i] = p.Name + "=" + EncodeURIComponent(stringify(item))
	}
	return strings.Join(pairs, "&")
}

func serializeFilters(v any) string {
	filters, ok := v.([]Filter)
	if !ok {
		return ""
	}
	var pairs []string
	for _, f := range filters {
		if f.Key == "" || f.Value == "" {
			continue
		}
		pairs = append(pairs, f.Key+"="+EncodeURIComponent(f.Value))
	}
	return strings.Join(pairs, "&")
}

const upperhex = "0123456789ABCDEF"

// EncodeURIComponent percent-encodes s the way ECMAScript encodeURIComponent
// does: everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ) is escaped as UTF-8 bytes.
func EncodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
