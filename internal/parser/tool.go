package parser

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/mcp-go/mcp"
)

// BodyArgument is the tool argument carrying the request body
const BodyArgument = "body"

// generateTool describes the template as an MCP tool. Path params are required
// strings; query params and the body follow their schemas.
func generateTool(t *RouteTemplate, params []*openapi3.Parameter, body *openapi3.SchemaRef, bodyRequired bool) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(strings.TrimSpace(fmt.Sprintf("%s %s\n%s", t.Method, t.Path, t.Description))),
	}

	for _, name := range t.PathParams {
		desc := fmt.Sprintf("Path parameter: %s", name)
		if p := findParameter(params, openapi3.ParameterInPath, name); p != nil && p.Description != "" {
			desc = p.Description
		}
		opts = append(opts, mcp.WithString(name, mcp.Required(), mcp.Description(desc)))
	}

	for _, name := range t.QueryParams {
		p := findParameter(params, openapi3.ParameterInQuery, name)
		desc := p.Description
		if desc == "" {
			desc = fmt.Sprintf("Query parameter: %s", name)
		}
		opts = append(opts, schemaOption(p.Schema, name, p.Required, desc))
	}

	if t.HasBody {
		opts = append(opts, schemaOption(body, BodyArgument, bodyRequired, "Request body"))
	}

	return mcp.NewTool(t.Name, opts...)
}

func findParameter(params []*openapi3.Parameter, in, name string) *openapi3.Parameter {
	for _, p := range params {
		if p.In == in && p.Name == name {
			return p
		}
	}
	return nil
}
