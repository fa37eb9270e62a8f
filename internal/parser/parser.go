// Package parser loads OpenAPI documents into a catalogue of route templates.
package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/brizzai/requestkit/internal/logger"
	"github.com/brizzai/requestkit/requester"
	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const formContentType = "application/x-www-form-urlencoded"

// NewSwaggerParser creates an empty catalogue filtered by adjuster
func NewSwaggerParser(adjuster *Adjuster) *SwaggerParser {
	if adjuster == nil {
		adjuster = NewAdjuster()
	}
	return &SwaggerParser{
		byName:   make(map[string]*RouteTemplate),
		adjuster: adjuster,
	}
}

func (p *SwaggerParser) Routes() []*RouteTemplate {
	return p.routes
}

func (p *SwaggerParser) Lookup(name string) (*RouteTemplate, bool) {
	t, ok := p.byName[name]
	return t, ok
}

// Init parses a Swagger/OpenAPI document from a file
func (p *SwaggerParser) Init(openAPISpec string, adjustmentsFile string) error {
	data, err := os.ReadFile(openAPISpec)
	if err != nil {
		return fmt.Errorf("failed to read openapi document: %w", err)
	}
	if err := p.adjuster.Load(adjustmentsFile); err != nil {
		return fmt.Errorf("failed to load adjustments file: %w", err)
	}
	return p.parse(data)
}

// ParseReader parses a Swagger/OpenAPI document from a reader
func (p *SwaggerParser) ParseReader(reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read openapi document: %w", err)
	}
	return p.parse(data)
}

func (p *SwaggerParser) parse(data []byte) error {
	doc, err := loadDocument(data)
	if err != nil {
		return err
	}
	p.doc = doc
	return p.processOperations()
}

// loadDocument accepts JSON or YAML, converting Swagger 2.0 to OpenAPI 3
func loadDocument(data []byte) (*openapi3.T, error) {
	// YAML is a superset of JSON, so one probe serves both
	var probe map[string]any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}

	swaggerVersion, hasSwagger := probe["swagger"]
	openapiVersion, hasOpenAPI := probe["openapi"]
	switch {
	case hasSwagger:
		return convertOpenAPI2(probe, swaggerVersion)
	case hasOpenAPI:
		if ver, ok := openapiVersion.(string); !ok || !strings.HasPrefix(ver, "3.") {
			return nil, fmt.Errorf("unsupported OpenAPI version: %v", openapiVersion)
		}
	default:
		return nil, fmt.Errorf("document is missing 'swagger' or 'openapi' version field")
	}

	doc, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		logger.Error("Failed to parse OpenAPI 3 document", zap.Error(err))
		return nil, fmt.Errorf("failed to parse openapi document: %w", err)
	}
	logger.Debug("Parsed OpenAPI 3 document", zap.String("version", doc.OpenAPI))
	return doc, nil
}

func convertOpenAPI2(probe map[string]any, swaggerVersion any) (*openapi3.T, error) {
	if fmt.Sprint(swaggerVersion) != "2.0" {
		return nil, fmt.Errorf("unsupported Swagger version: %v", swaggerVersion)
	}

	// openapi2.T only unmarshals from JSON
	data, err := json.Marshal(probe)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Swagger 2.0 document: %w", err)
	}
	var doc2 openapi2.T
	if err := json.Unmarshal(data, &doc2); err != nil {
		return nil, fmt.Errorf("failed to parse Swagger 2.0 document: %w", err)
	}

	doc, err := openapi2conv.ToV3(&doc2)
	if err != nil {
		logger.Error("Failed to convert Swagger 2.0 document", zap.Error(err))
		return nil, fmt.Errorf("failed to convert Swagger 2.0 to OpenAPI 3: %w", err)
	}
	logger.Debug("Converted Swagger 2.0 document to OpenAPI 3")
	return doc, nil
}

// processOperations builds a template for every selected operation
func (p *SwaggerParser) processOperations() error {
	p.routes = p.routes[:0]
	clear(p.byName)

	if p.doc.Paths == nil {
		return nil
	}
	pathItems := p.doc.Paths.Map()
	for _, path := range slices.Sorted(maps.Keys(pathItems)) {
		item := pathItems[path]
		operations := []struct {
			method    requester.Method
			operation *openapi3.Operation
		}{
			{requester.GET, item.Get},
			{requester.POST, item.Post},
			{requester.PUT, item.Put},
			{requester.PATCH, item.Patch},
			{requester.DELETE, item.Delete},
		}
		for _, op := range operations {
			if op.operation == nil || !p.adjuster.Selected(path, string(op.method)) {
				continue
			}
			t := p.newTemplate(path, op.method, op.operation, item.Parameters)
			if existing, dup := p.byName[t.Name]; dup {
				return fmt.Errorf("routes %s %s and %s %s share tool name %s",
					existing.Method, existing.Path, t.Method, t.Path, t.Name)
			}
			p.byName[t.Name] = t
			p.routes = append(p.routes, t)
		}
	}

	slices.SortFunc(p.routes, func(a, b *RouteTemplate) int {
		return strings.Compare(a.Name, b.Name)
	})
	logger.Info("Built route catalogue", zap.Int("routes", len(p.routes)))
	return nil
}

func (p *SwaggerParser) newTemplate(path string, method requester.Method, op *openapi3.Operation, shared openapi3.Parameters) *RouteTemplate {
	desc := op.Description
	if desc == "" {
		desc = op.Summary
	}

	t := &RouteTemplate{
		Name:        toolName(method, path),
		Method:      method,
		Path:        path,
		Encoding:    requester.EncodingURL,
		Description: p.adjuster.Description(path, string(method), desc),
		PathParams:  extractPathParams(path),
		NoContent:   !hasSuccessContent(op),
	}

	params := mergeParameters(shared, op.Parameters)
	for _, param := range params {
		if param.In == openapi3.ParameterInQuery {
			t.QueryParams = append(t.QueryParams, param.Name)
		}
	}

	body, bodyRequired := requestBodySchema(op)
	if op.RequestBody != nil && op.RequestBody.Value != nil {
		t.HasBody = true
		t.Encoding = requester.EncodingJSON
		if op.RequestBody.Value.Content.Get(formContentType) != nil {
			t.Encoding = requester.EncodingForm
		}
	}

	if accept := acceptType(op); accept != "" {
		t.Headers = append(t.Headers, requester.Header{Field: "Accept", Value: accept})
	}
	t.Headers = append(t.Headers, p.adjuster.Headers(path, string(method))...)

	t.Tool = generateTool(t, params, body, bodyRequired)
	return t
}

// mergeParameters lets operation parameters override path level ones
func mergeParameters(shared, own openapi3.Parameters) []*openapi3.Parameter {
	var out []*openapi3.Parameter
	seen := make(map[string]bool)
	for _, list := range []openapi3.Parameters{own, shared} {
		for _, ref := range list {
			if ref == nil || ref.Value == nil {
				continue
			}
			key := ref.Value.In + ":" + ref.Value.Name
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, ref.Value)
		}
	}
	return out
}

// requestBodySchema returns the body schema. Several content types are merged
// into one object.
func requestBodySchema(op *openapi3.Operation) (*openapi3.SchemaRef, bool) {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil, false
	}
	content := op.RequestBody.Value.Content
	required := op.RequestBody.Value.Required
	switch len(content) {
	case 0:
		return nil, required
	case 1:
		for _, mediaType := range content {
			return mediaType.Schema, required
		}
	}

	merged := &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{openapi3.TypeObject},
		Properties: make(openapi3.Schemas),
	}}
	for _, contentType := range slices.Sorted(maps.Keys(content)) {
		mediaType := content[contentType]
		if mediaType.Schema != nil && mediaType.Schema.Value != nil {
			maps.Copy(merged.Value.Properties, mediaType.Schema.Value.Properties)
		}
	}
	return merged, required
}

// acceptType picks the first content type of the lowest success response
func acceptType(op *openapi3.Operation) string {
	if op.Responses == nil {
		return ""
	}
	responses := op.Responses.Map()
	for _, code := range slices.Sorted(maps.Keys(responses)) {
		ref := responses[code]
		if !strings.HasPrefix(code, "2") || ref.Value == nil || len(ref.Value.Content) == 0 {
			continue
		}
		types := slices.Sorted(maps.Keys(ref.Value.Content))
		if slices.Contains(types, "application/json") {
			return "application/json"
		}
		return types[0]
	}
	return ""
}

func hasSuccessContent(op *openapi3.Operation) bool {
	if op.Responses == nil {
		return true
	}
	responses := op.Responses.Map()
	if len(responses) == 0 {
		return true
	}
	for code, ref := range responses {
		if ref.Value == nil {
			continue
		}
		if (strings.HasPrefix(code, "2") || code == "default") && len(ref.Value.Content) > 0 {
			return true
		}
	}
	return false
}

// toolName derives "<method>_<path>" in lower case, e.g. get_users_id
func toolName(method requester.Method, path string) string {
	name := strings.TrimPrefix(path, "/")
	name = strings.NewReplacer("/", "_", "{", "", "}", "").Replace(name)
	return strings.ToLower(fmt.Sprintf("%s_%s", method, name))
}

// extractPathParams extracts the {param} segments of a path in order
func extractPathParams(path string) []string {
	var params []string
	for _, part := range strings.Split(path, "/") {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			params = append(params, strings.TrimSuffix(strings.TrimPrefix(part, "{"), "}"))
		}
	}
	return params
}
