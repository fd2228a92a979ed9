package listview

import "fmt"

// Meta is the paging information of a list response.
type Meta struct {
	Page       int
	PageSize   int
	TotalCount int
	TotalPages int
	ItemRange  [2]int
}

// Page is one page of a list response.
type Page struct {
	Items []map[string]any
	Meta  Meta
}

// Summary renders the item range, e.g. "21 - 40 of 312".
func (p *Page) Summary() string {
	if p == nil {
		return "0 - 0 of 0"
	}
	return fmt.Sprintf("%d - %d of %d", p.Meta.ItemRange[0], p.Meta.ItemRange[1], p.Meta.TotalCount)
}
