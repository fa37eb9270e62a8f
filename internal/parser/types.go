package parser

import (
	"io"

	"github.com/brizzai/requestkit/requester"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/mcp-go/mcp"
)

// RouteTemplate is one operation of an OpenAPI document, ready to be bound to
// call arguments
type RouteTemplate struct {
	Name        string
	Method      requester.Method
	Path        string
	Encoding    requester.Encoding
	Description string
	PathParams  []string
	QueryParams []string
	// HasBody is set when the operation accepts a request body
	HasBody bool
	// NoContent is set when no success response declares a body
	NoContent bool
	Headers   []requester.Header
	Tool      mcp.Tool
}

// Catalogue turns an OpenAPI document into route templates
type Catalogue interface {
	// Init loads the OpenAPI document and the optional adjustments file
	Init(openAPISpec string, adjustmentsFile string) error
	// ParseReader loads an OpenAPI document from a reader
	ParseReader(reader io.Reader) error
	// Routes returns the templates sorted by tool name
	Routes() []*RouteTemplate
	// Lookup finds a template by tool name
	Lookup(name string) (*RouteTemplate, bool)
}

// SwaggerParser builds a Catalogue from Swagger 2.0 and OpenAPI 3 documents
type SwaggerParser struct {
	doc      *openapi3.T
	routes   []*RouteTemplate
	byName   map[string]*RouteTemplate
	adjuster *Adjuster
}
