// Package fieldschema flattens response item schemas into the flat field list
// that list views render and filter on.
package fieldschema

import (
	"github.com/kolah/oclist/internal/model"
)

// LongTextThreshold is the maxLength above which strings render as long text.
const LongTextThreshold = 200

// Kind classifies how a field renders.
type Kind int

const (
	KindOther Kind = iota
	KindDateTime
	KindShortText
	KindLongText
	KindArray
	KindBoolean
	KindEnum
)

var kindNames = map[Kind]string{
	KindOther:     "other",
	KindDateTime:  "date-time",
	KindShortText: "short-text",
	KindLongText:  "long-text",
	KindArray:     "array",
	KindBoolean:   "boolean",
	KindEnum:      "enum",
}

func (k Kind) String() string {
	return kindNames[k]
}

// KindOf resolves the rendering kind of a schema.
func KindOf(s *model.Schema) Kind {
	if s == nil {
		return KindOther
	}
	switch s.Type {
	case model.TypeString:
		switch {
		case s.Format == "date-time":
			return KindDateTime
		case len(s.Enum) > 0:
			return KindEnum
		case s.MaxLength != nil && *s.MaxLength > LongTextThreshold:
			return KindLongText
		default:
			return KindShortText
		}
	case model.TypeArray:
		return KindArray
	case model.TypeBoolean:
		return KindBoolean
	}
	return KindOther
}

// Field is one flattened, renderable property.
type Field struct {
	Name   string
	Schema *model.Schema
	Kind   Kind
}

func newField(name string, s *model.Schema) Field {
	return Field{Name: name, Schema: s, Kind: KindOf(s)}
}

// Flatten replaces each property composed with allOf by one "outer.inner"
// field per property of its first branch. Other properties pass through
// unchanged. Only one level is flattened: an inner property that is itself
// composed keeps its allOf, so flattening the output again is a no-op only
// when no branch property is composed.
func Flatten(props []model.Property) []Field {
	fields := make([]Field, 0, len(props))
	for _, p := range props {
		if p.Schema != nil && len(p.Schema.AllOf) > 0 {
			if branch := p.Schema.AllOf[0]; branch != nil {
				for _, inner := range branch.Properties {
					fields = append(fields, newField(p.Name+"."+inner.Name, inner.Schema))
				}
			}
			continue
		}
		fields = append(fields, newField(p.Name, p.Schema))
	}
	return fields
}

// Names lists field names in order.
func Names(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// ListItemSchema returns the schema of Items[] in the operation's 200
// application/json response, or nil when the operation is not a list.
func ListItemSchema(op *model.Operation) *model.Schema {
	if op == nil {
		return nil
	}
	resp := op.Response("200")
	if resp == nil {
		return nil
	}
	items := resp.ContentSchema("application/json").Property("Items")
	if items == nil || items.Items == nil {
		return nil
	}
	return items.Items
}

// ListFields flattens the item schema of a list operation.
func ListFields(op *model.Operation) []Field {
	item := ListItemSchema(op)
	if item == nil {
		return nil
	}
	return Flatten(item.Properties)
}
