package listview

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kolah/oclist/internal/fieldschema"
	"golang.org/x/net/html"
)

// DateTimeLayout formats date-time cells in local time.
const DateTimeLayout = "2006-01-02, 3:04:05 PM"

// MaxLongText is the number of runes a long-text cell keeps.
const MaxLongText = 200

type Color string

const (
	ColorTeal   Color = "teal"
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
)

// Tag is a coloured label inside a cell.
type Tag struct {
	Text  string
	Color Color
}

// Cell is the rendered value of one column for one item. Exactly one of Text
// or Tags is set for a non-empty cell; Link is set for item IDs.
type Cell struct {
	Kind fieldschema.Kind
	Text string
	Link string
	Tags []Tag
}

// String returns the plain text of the cell.
func (c Cell) String() string {
	if len(c.Tags) == 0 {
		return c.Text
	}
	texts := make([]string, len(c.Tags))
	for i, t := range c.Tags {
		texts[i] = t.Text
	}
	return strings.Join(texts, ", ")
}

// Cell renders column name of item according to the column's field kind.
func (c *Controller) Cell(name string, item map[string]any) Cell {
	kind := c.ColumnKind(name)
	value, _ := Value(item, name)
	cell := Cell{Kind: kind}

	switch kind {
	case fieldschema.KindDateTime:
		cell.Text = formatDateTime(value)
	case fieldschema.KindShortText:
		cell.Text = stringify(value)
		if name == "ID" && cell.Text != "" {
			cell.Link = c.LinkPath(cell.Text)
		}
	case fieldschema.KindLongText:
		cell.Text = truncate(StripHTML(stringify(value)), MaxLongText)
	case fieldschema.KindArray:
		if items, ok := value.([]any); ok {
			for _, v := range items {
				cell.Tags = append(cell.Tags, Tag{Text: stringify(v), Color: ColorTeal})
			}
		}
	case fieldschema.KindBoolean:
		if b, ok := value.(bool); ok {
			color := ColorRed
			if b {
				color = ColorGreen
			}
			cell.Tags = []Tag{{Text: fmt.Sprint(b), Color: color}}
		}
	case fieldschema.KindEnum:
		if value != nil {
			cell.Tags = []Tag{{Text: stringify(value), Color: ColorYellow}}
		}
	default:
		cell.Text = stringify(value)
	}
	return cell
}

// Value reads a possibly dotted field name from item, descending into nested
// objects. A key containing the dot literally takes precedence.
func Value(item map[string]any, name string) (any, bool) {
	if v, ok := item[name]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(name, ".")
	if !found {
		return nil, false
	}
	nested, ok := item[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return Value(nested, rest)
}

func formatDateTime(v any) string {
	s := stringify(v)
	if s == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Local().Format(DateTimeLayout)
}

// StripHTML returns the text content of an HTML fragment with runs of
// whitespace collapsed.
func StripHTML(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; either way keep what was read.
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	default:
		return fmt.Sprint(x)
	}
}
