package model

type Schema struct {
	Name        string
	Description string
	Type        SchemaType
	Format      string
	Nullable    bool

	// Object properties
	Properties []Property
	Required   []string

	// Array items
	Items *Schema

	// Enum values
	Enum []any

	// Composition
	AllOf []*Schema
	OneOf []*Schema
	AnyOf []*Schema

	// Ref names the component this schema was resolved from. Resolved schemas are
	// fully inlined; only a recursive reference leaves a stub carrying Ref alone.
	Ref string

	MinLength *int64
	MaxLength *int64
	Minimum   *float64
	Maximum   *float64
}

// Property returns the named property schema, or nil.
func (s *Schema) Property(name string) *Schema {
	if s == nil {
		return nil
	}
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema
		}
	}
	return nil
}

// EnumStrings returns the enum values that are strings, in declaration order.
func (s *Schema) EnumStrings() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Enum))
	for _, v := range s.Enum {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

type SchemaType string

const (
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
	TypeArray   SchemaType = "array"
	TypeObject  SchemaType = "object"
	TypeNull    SchemaType = "null"
)

type Property struct {
	Name   string
	Schema *Schema
}
