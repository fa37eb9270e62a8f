package parser

import (
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/mcp-go/mcp"
)

// maxSchemaDepth stops recursive schemas from expanding forever
const maxSchemaDepth = 8

// schemaOption converts an OpenAPI schema into a tool argument. Schemas without
// a type become plain objects.
func schemaOption(ref *openapi3.SchemaRef, name string, required bool, fallback string) mcp.ToolOption {
	var s *openapi3.Schema
	if ref != nil {
		s = ref.Value
	}

	desc := fallback
	if s != nil && s.Description != "" {
		desc = s.Description
	}
	opts := []mcp.PropertyOption{mcp.Description(desc)}
	if required {
		opts = append(opts, mcp.Required())
	}

	if s == nil || s.Type == nil {
		return mcp.WithObject(name, opts...)
	}

	switch {
	case s.Type.Includes(openapi3.TypeArray):
		if s.Items != nil && s.Items.Value != nil {
			opts = append(opts, mcp.Items(jsonSchema(s.Items.Value, 1)))
		}
		return mcp.WithArray(name, opts...)
	case s.Type.Includes(openapi3.TypeObject):
		return mcp.WithObject(name, append(opts, objectOptions(s)...)...)
	case s.Type.Includes(openapi3.TypeString):
		return mcp.WithString(name, append(opts, stringOptions(s)...)...)
	case s.Type.Includes(openapi3.TypeNumber), s.Type.Includes(openapi3.TypeInteger):
		return mcp.WithNumber(name, append(opts, numberOptions(s)...)...)
	case s.Type.Includes(openapi3.TypeBoolean):
		return mcp.WithBoolean(name, opts...)
	default:
		return mcp.WithObject(name, opts...)
	}
}

func objectOptions(s *openapi3.Schema) []mcp.PropertyOption {
	var opts []mcp.PropertyOption
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			if prop.Value != nil {
				props[name] = jsonSchema(prop.Value, 1)
			}
		}
		opts = append(opts, mcp.Properties(props))
	}
	if s.MaxProps != nil {
		opts = append(opts, mcp.MaxProperties(int(*s.MaxProps)))
	}
	if s.MinProps != 0 {
		opts = append(opts, mcp.MinProperties(int(s.MinProps)))
	}
	if has := s.AdditionalProperties.Has; has != nil && *has {
		if extra := s.AdditionalProperties.Schema; extra != nil && extra.Value != nil {
			opts = append(opts, mcp.AdditionalProperties(jsonSchema(extra.Value, 1)))
		} else {
			opts = append(opts, mcp.AdditionalProperties(true))
		}
	}
	if len(s.Required) > 0 {
		required := s.Required
		opts = append(opts, func(m map[string]any) {
			m["required"] = required
		})
	}
	return opts
}

func stringOptions(s *openapi3.Schema) []mcp.PropertyOption {
	var opts []mcp.PropertyOption
	if enum := stringEnum(s.Enum); len(enum) > 0 {
		opts = append(opts, mcp.Enum(enum...))
	}
	if s.MaxLength != nil {
		opts = append(opts, mcp.MaxLength(int(*s.MaxLength)))
	}
	if s.MinLength != 0 {
		opts = append(opts, mcp.MinLength(int(s.MinLength)))
	}
	if s.Pattern != "" {
		opts = append(opts, mcp.Pattern(s.Pattern))
	}
	return opts
}

func numberOptions(s *openapi3.Schema) []mcp.PropertyOption {
	var opts []mcp.PropertyOption
	if s.Max != nil {
		opts = append(opts, mcp.Max(*s.Max))
	}
	if s.Min != nil {
		opts = append(opts, mcp.Min(*s.Min))
	}
	if s.MultipleOf != nil {
		opts = append(opts, mcp.MultipleOf(*s.MultipleOf))
	}
	return opts
}

func stringEnum(values []any) []string {
	var out []string
	for _, v := range values {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

// jsonSchema renders a nested schema as a plain JSON schema map
func jsonSchema(s *openapi3.Schema, depth int) map[string]any {
	out := make(map[string]any)
	if s.Type != nil && len(s.Type.Slice()) > 0 {
		out["type"] = s.Type.Slice()[0]
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if s.Format != "" {
		out["format"] = s.Format
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if depth >= maxSchemaDepth || s.Type == nil {
		return out
	}

	switch {
	case s.Type.Includes(openapi3.TypeString):
		if s.MaxLength != nil {
			out["maxLength"] = *s.MaxLength
		}
		if s.MinLength != 0 {
			out["minLength"] = s.MinLength
		}
		if s.Pattern != "" {
			out["pattern"] = s.Pattern
		}
	case s.Type.Includes(openapi3.TypeNumber), s.Type.Includes(openapi3.TypeInteger):
		if s.Max != nil {
			out["maximum"] = *s.Max
		}
		if s.Min != nil {
			out["minimum"] = *s.Min
		}
		if s.MultipleOf != nil {
			out["multipleOf"] = *s.MultipleOf
		}
	case s.Type.Includes(openapi3.TypeArray):
		if s.Items != nil && s.Items.Value != nil {
			out["items"] = jsonSchema(s.Items.Value, depth+1)
		}
	case s.Type.Includes(openapi3.TypeObject):
		if len(s.Properties) > 0 {
			props := make(map[string]any, len(s.Properties))
			for name, prop := range s.Properties {
				if prop.Value != nil {
					props[name] = jsonSchema(prop.Value, depth+1)
				}
			}
			out["properties"] = props
		}
		if len(s.Required) > 0 {
			out["required"] = s.Required
		}
	}
	return out
}
