package loader

import (
	"slices"
	"strings"

	"github.com/kolah/oclist/internal/model"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	"github.com/pb33f/libopenapi/orderedmap"
	"go.yaml.in/yaml/v4"
)

const (
	extSectionID = "x-section-id"
	extID        = "x-id"

	// maxSchemaDepth bounds inline expansion of anonymous self-similar schemas
	// that carry no reference to detect a cycle by.
	maxSchemaDepth = 32
)

// transformer inlines every schema it visits. refs is the stack of component
// references currently being expanded.
type transformer struct {
	refs []string
}

// Transform converts the parsed document into the model. Every reference is
// resolved; a reference that recurses into itself becomes a stub carrying only Ref.
func Transform(result *Result) (*model.Spec, error) {
	doc := result.Document.Model

	t := &transformer{}

	spec := &model.Spec{
		Info:    transformInfo(doc.Info),
		Servers: transformServers(doc.Servers),
		Tags:    transformTags(doc.Tags),
	}

	if doc.Components != nil && doc.Components.Schemas != nil {
		for name, schemaProxy := range doc.Components.Schemas.FromOldest() {
			ref := "#/components/schemas/" + name
			t.refs = append(t.refs, ref)
			schema := t.transformSchema(name, schemaProxy.Schema(), 0)
			t.refs = t.refs[:len(t.refs)-1]
			if schema != nil {
				schema.Ref = ref
				spec.Schemas = append(spec.Schemas, *schema)
			}
		}
	}

	if doc.Paths != nil && doc.Paths.PathItems != nil {
		for pathStr, pathItem := range doc.Paths.PathItems.FromOldest() {
			spec.Operations = append(spec.Operations, t.transformPath(pathStr, pathItem)...)
		}
	}

	return spec, nil
}

func transformInfo(info *base.Info) model.Info {
	if info == nil {
		return model.Info{}
	}
	return model.Info{
		Title:       info.Title,
		Description: info.Description,
		Version:     info.Version,
	}
}

func transformServers(servers []*v3.Server) []model.Server {
	var result []model.Server
	for _, s := range servers {
		result = append(result, model.Server{
			URL:         s.URL,
			Description: s.Description,
		})
	}
	return result
}

func transformTags(tags []*base.Tag) []model.Tag {
	var result []model.Tag
	for _, t := range tags {
		tag := model.Tag{
			Name:        t.Name,
			Description: t.Description,
		}
		ext := scalarExtensions(t.Extensions)
		tag.SectionID = ext[extSectionID]
		tag.ID = ext[extID]
		result = append(result, tag)
	}
	return result
}

// scalarExtensions collects the x-* extensions whose values are scalars.
func scalarExtensions(extensions *orderedmap.Map[string, *yaml.Node]) map[string]string {
	out := make(map[string]string)
	if extensions == nil {
		return out
	}
	for key, node := range extensions.FromOldest() {
		if node == nil || !strings.HasPrefix(key, "x-") {
			continue
		}
		if node.Kind == yaml.ScalarNode {
			out[key] = node.Value
		}
	}
	return out
}

func (t *transformer) transformPath(pathStr string, pathItem *v3.PathItem) []model.Operation {
	var ops []model.Operation

	// Use a slice for deterministic ordering
	methods := []struct {
		method model.Method
		op     *v3.Operation
	}{
		{model.MethodGet, pathItem.Get},
		{model.MethodPost, pathItem.Post},
		{model.MethodPut, pathItem.Put},
		{model.MethodDelete, pathItem.Delete},
		{model.MethodPatch, pathItem.Patch},
		{model.MethodHead, pathItem.Head},
		{model.MethodOptions, pathItem.Options},
		{model.MethodTrace, pathItem.Trace},
	}

	for _, m := range methods {
		if m.op == nil {
			continue
		}
		ops = append(ops, t.transformOperation(m.method, pathStr, pathItem.Parameters, m.op))
	}

	return ops
}

func (t *transformer) transformOperation(method model.Method, path string, shared []*v3.Parameter, op *v3.Operation) model.Operation {
	operation := model.Operation{
		ID:          op.OperationId,
		Method:      method,
		Path:        path,
		Summary:     op.Summary,
		Description: op.Description,
		Tags:        slices.Clone(op.Tags),
		Deprecated:  boolPtr(op.Deprecated),
	}

	// Path-level parameters apply unless the operation redeclares them.
	for _, p := range shared {
		if p == nil || declaresParameter(op.Parameters, p.Name, p.In) {
			continue
		}
		operation.Parameters = append(operation.Parameters, t.transformParameter(p))
	}
	for _, p := range op.Parameters {
		if p == nil {
			continue
		}
		operation.Parameters = append(operation.Parameters, t.transformParameter(p))
	}

	if op.RequestBody != nil {
		operation.RequestBody = t.transformRequestBody(op.RequestBody)
	}

	if op.Responses != nil && op.Responses.Codes != nil {
		for code, resp := range op.Responses.Codes.FromOldest() {
			operation.Responses = append(operation.Responses, t.transformResponse(code, resp))
		}
	}

	return operation
}

func declaresParameter(params []*v3.Parameter, name, in string) bool {
	for _, p := range params {
		if p != nil && p.Name == name && p.In == in {
			return true
		}
	}
	return false
}

func (t *transformer) transformParameter(p *v3.Parameter) model.Parameter {
	param := model.Parameter{
		Name:        p.Name,
		In:          model.ParameterLocation(strings.ToLower(p.In)),
		Description: p.Description,
		Required:    boolPtr(p.Required),
		Deprecated:  p.Deprecated,
	}

	if p.Schema != nil {
		param.Schema = t.transformSchemaProxy(p.Schema, 0)
	}

	return param
}

func (t *transformer) transformRequestBody(rb *v3.RequestBody) *model.RequestBody {
	body := &model.RequestBody{
		Description: rb.Description,
		Required:    boolPtr(rb.Required),
	}

	if rb.Content != nil {
		for mediaType, content := range rb.Content.FromOldest() {
			mtc := model.MediaTypeContent{MediaType: mediaType}
			if content.Schema != nil {
				mtc.Schema = t.transformSchemaProxy(content.Schema, 0)
			}
			body.Content = append(body.Content, mtc)
		}
	}

	return body
}

func (t *transformer) transformResponse(code string, resp *v3.Response) model.Response {
	response := model.Response{
		StatusCode:  code,
		Description: resp.Description,
	}

	if resp.Content != nil {
		for mediaType, content := range resp.Content.FromOldest() {
			mtc := model.MediaTypeContent{MediaType: mediaType}
			if content.Schema != nil {
				mtc.Schema = t.transformSchemaProxy(content.Schema, 0)
			}
			response.Content = append(response.Content, mtc)
		}
	}

	return response
}

func (t *transformer) transformSchemaProxy(proxy *base.SchemaProxy, depth int) *model.Schema {
	if proxy == nil {
		return nil
	}

	ref := proxy.GetReference()
	if ref != "" {
		if slices.Contains(t.refs, ref) {
			return &model.Schema{Ref: ref}
		}
		t.refs = append(t.refs, ref)
		defer func() { t.refs = t.refs[:len(t.refs)-1] }()
	}
	if depth > maxSchemaDepth {
		return &model.Schema{Ref: ref}
	}

	schema := t.transformSchema("", proxy.Schema(), depth)
	if schema != nil && ref != "" {
		schema.Ref = ref
	}
	return schema
}

func (t *transformer) transformSchema(name string, s *base.Schema, depth int) *model.Schema {
	if s == nil {
		return nil
	}

	schema := &model.Schema{
		Name:        name,
		Description: s.Description,
		Format:      s.Format,
		Nullable:    boolPtr(s.Nullable),
		Required:    slices.Clone(s.Required),
	}

	if len(s.Type) > 0 {
		schema.Type = model.SchemaType(s.Type[0])
	}

	for _, e := range s.Enum {
		schema.Enum = append(schema.Enum, nodeValue(e))
	}

	if s.Properties != nil {
		for propName, propProxy := range s.Properties.FromOldest() {
			propSchema := t.transformSchemaProxy(propProxy, depth+1)
			if propSchema != nil && propSchema.Name == "" {
				propSchema.Name = propName
			}
			schema.Properties = append(schema.Properties, model.Property{
				Name:   propName,
				Schema: propSchema,
			})
		}
	}

	if s.Items != nil && s.Items.IsA() && s.Items.A != nil {
		schema.Items = t.transformSchemaProxy(s.Items.A, depth+1)
	}

	for _, proxy := range s.AllOf {
		schema.AllOf = append(schema.AllOf, t.transformSchemaProxy(proxy, depth+1))
	}
	for _, proxy := range s.OneOf {
		schema.OneOf = append(schema.OneOf, t.transformSchemaProxy(proxy, depth+1))
	}
	for _, proxy := range s.AnyOf {
		schema.AnyOf = append(schema.AnyOf, t.transformSchemaProxy(proxy, depth+1))
	}

	if s.Minimum != nil {
		v := float64(*s.Minimum)
		schema.Minimum = &v
	}
	if s.Maximum != nil {
		v := float64(*s.Maximum)
		schema.Maximum = &v
	}
	if s.MinLength != nil {
		v := int64(*s.MinLength)
		schema.MinLength = &v
	}
	if s.MaxLength != nil {
		v := int64(*s.MaxLength)
		schema.MaxLength = &v
	}

	return schema
}

// nodeValue decodes a scalar YAML node into its Go value, falling back to the
// literal text.
func nodeValue(n *yaml.Node) any {
	if n == nil {
		return nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return n.Value
	}
	return v
}

func boolPtr(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}
