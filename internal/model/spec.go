package model

type Spec struct {
	Info       Info
	Servers    []Server
	Tags       []Tag
	Operations []Operation
	Schemas    []Schema
}

// SchemaByName returns a component schema by name, or nil.
func (s *Spec) SchemaByName(name string) *Schema {
	if s == nil {
		return nil
	}
	for i := range s.Schemas {
		if s.Schemas[i].Name == name {
			return &s.Schemas[i]
		}
	}
	return nil
}

// ServerURL returns the URL of the first declared server, or "".
func (s *Spec) ServerURL() string {
	if s == nil || len(s.Servers) == 0 {
		return ""
	}
	return s.Servers[0].URL
}

type Info struct {
	Title       string
	Description string
	Version     string
}

type Server struct {
	URL         string
	Description string
}

type Tag struct {
	Name        string
	Description string
	// SectionID is the x-section-id extension; tags carrying it are navigable resources.
	SectionID string
	// ID is the x-id extension; tags carrying it are top-level sections.
	ID string
}
