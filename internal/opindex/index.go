// Package opindex derives navigation structures from an API description:
// per-resource operation tables, list/mutating partitions and a search index.
package opindex

import (
	"slices"
	"sort"

	"github.com/kolah/oclist/internal/model"
	"github.com/samber/lo"
)

// Resource is a navigable group of operations sharing a tag.
type Resource struct {
	Name        string
	Description string
	SectionID   string
}

// Section is a top-level grouping of resources (a tag with x-id).
type Section struct {
	ID   string
	Name string
}

// BuildOperations flattens the description into one entry per verb and path.
// Operations tagged with the Me pseudo-resource are retagged with the
// sub-resource their path belongs to.
func BuildOperations(spec *model.Spec) []model.Operation {
	if spec == nil {
		return nil
	}
	ops := make([]model.Operation, 0, len(spec.Operations))
	for _, op := range spec.Operations {
		op.Tags = slices.Clone(op.Tags)
		if op.Resource() == meResource {
			if name := SubSectionName(op.Path); name != "" {
				op.Tags[0] = name
			}
		}
		ops = append(ops, op)
	}
	return ops
}

// GroupByResource groups operations by resource and orders each group by path.
func GroupByResource(ops []model.Operation) map[string][]model.Operation {
	groups := lo.GroupBy(ops, func(op model.Operation) string {
		return op.Resource()
	})
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Path < group[j].Path
		})
	}
	return groups
}

// BuildResources returns the tags carrying x-section-id plus the Me
// sub-resources other than Me itself.
func BuildResources(spec *model.Spec) []Resource {
	if spec == nil {
		return nil
	}
	var resources []Resource
	for _, tag := range spec.Tags {
		if tag.SectionID == "" {
			continue
		}
		resources = append(resources, Resource{
			Name:        tag.Name,
			Description: tag.Description,
			SectionID:   tag.SectionID,
		})
	}
	for _, sec := range meSubSections {
		if sec.name == meResource {
			continue
		}
		resources = append(resources, Resource{Name: sec.name, SectionID: sec.sectionID})
	}
	return resources
}

// Index is the derived view of one API description. A zero Index (from a nil
// description) has no operations and no resources.
type Index struct {
	Operations         []model.Operation
	ByResource         map[string][]model.Operation
	ListByResource     map[string][]model.Operation
	MutatingByResource map[string][]model.Operation
	ByID               map[string]model.Operation

	// Resources owning at least one operation.
	Resources []Resource
	// ListResources owning at least one GET operation.
	ListResources []Resource
	// MutatingResources owning at least one non-GET operation.
	MutatingResources []Resource
	Sections          []Section

	Search *SearchIndex

	spec *model.Spec
}

func Build(spec *model.Spec) *Index {
	ops := BuildOperations(spec)
	resources := BuildResources(spec)

	isList := func(op model.Operation, _ int) bool { return op.Method == model.MethodGet }
	isMutating := func(op model.Operation, _ int) bool { return op.Method != model.MethodGet }

	idx := &Index{
		Operations:         ops,
		ByResource:         GroupByResource(ops),
		ListByResource:     GroupByResource(lo.Filter(ops, isList)),
		MutatingByResource: GroupByResource(lo.Filter(ops, isMutating)),
		ByID: lo.KeyBy(ops, func(op model.Operation) string {
			return op.ID
		}),
		spec: spec,
	}

	idx.Resources = withOperations(resources, idx.ByResource)
	idx.ListResources = withOperations(resources, idx.ListByResource)
	idx.MutatingResources = withOperations(resources, idx.MutatingByResource)

	if spec != nil {
		for _, tag := range spec.Tags {
			if tag.ID != "" {
				idx.Sections = append(idx.Sections, Section{ID: tag.ID, Name: tag.Name})
			}
		}
	}

	idx.Search = BuildSearchIndex(ops, resources)
	return idx
}

func withOperations(resources []Resource, groups map[string][]model.Operation) []Resource {
	return lo.Filter(resources, func(r Resource, _ int) bool {
		return len(groups[r.Name]) > 0
	})
}

// FindResource returns the resource owning the operation.
func (idx *Index) FindResource(operationID string) (Resource, bool) {
	op, ok := idx.ByID[operationID]
	if !ok {
		return Resource{}, false
	}
	return lo.Find(idx.Resources, func(r Resource) bool {
		return r.Name == op.Resource()
	})
}

// FindOperation returns a copy of the operation whose parameters carry
// editable defaults: "" for strings, false for booleans, 0 for required
// integers and nil for optional ones.
func (idx *Index) FindOperation(operationID string) (model.Operation, bool) {
	op, ok := idx.ByID[operationID]
	if !ok {
		return model.Operation{}, false
	}
	op.Parameters = slices.Clone(op.Parameters)
	for i := range op.Parameters {
		p := &op.Parameters[i]
		if p.Schema == nil {
			continue
		}
		switch p.Schema.Type {
		case model.TypeString:
			p.Value = ""
		case model.TypeInteger:
			if p.Required {
				p.Value = 0
			} else {
				p.Value = nil
			}
		case model.TypeBoolean:
			p.Value = false
		}
	}
	return op, true
}

// ListOperation returns the GET operation with the given ID.
func (idx *Index) ListOperation(operationID string) (model.Operation, bool) {
	op, ok := idx.ByID[operationID]
	if !ok || op.Method != model.MethodGet {
		return model.Operation{}, false
	}
	return op, true
}

// AvailableRoles returns the roles a webhook may elevate to, taken from
// Webhook.ElevatedRoles in the description.
func (idx *Index) AvailableRoles() []string {
	webhook := idx.spec.SchemaByName("Webhook")
	roles := webhook.Property("ElevatedRoles")
	if roles == nil {
		return nil
	}
	return roles.Items.EnumStrings()
}
