package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/brizzai/requestkit/requester"
)

// Bind substitutes the path params and sorts the remaining arguments into the
// params of a route. JSON routes carry the body object as params; their query
// params are appended to the path so they survive JSON encoding.
func (t *RouteTemplate) Bind(cfg *requester.Configuration, args map[string]any) (*requester.RouteDescriptor, error) {
	path := t.Path
	for _, name := range t.PathParams {
		v, ok := args[name]
		if !ok || v == nil {
			return nil, fmt.Errorf("missing path parameter %q", name)
		}
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(argString(v)))
	}

	query := requester.Params{}
	for _, name := range t.QueryParams {
		if v, ok := args[name]; ok && v != nil {
			query[name] = paramValue(v)
		}
	}

	body, err := bodyArgument(args)
	if err != nil {
		return nil, err
	}

	params := query
	switch t.Encoding {
	case requester.EncodingJSON:
		if encoded := requester.EncodeQuery(requester.URLQuery(query)); encoded != "" {
			path += "?" + encoded
		}
		params = requester.Params(body)
	case requester.EncodingForm:
		for k, v := range body {
			params[k] = paramValue(v)
		}
	}

	return requester.NewRoute(cfg, t.Method, path,
		requester.WithEncoding(t.Encoding),
		requester.WithParams(params),
		requester.WithHeaders(t.Headers...),
	), nil
}

// Execute binds args and sends the route. Successful bodies come back as
// generic JSON, or as text when they are not JSON; routes without a success
// body return nil.
func (t *RouteTemplate) Execute(ctx context.Context, session requester.Session, cfg *requester.Configuration, args map[string]any, opts ...requester.Option) (any, error) {
	route, err := t.Bind(cfg, args)
	if err != nil {
		return nil, err
	}
	opts = append([]requester.Option{requester.WithDecoder(lenientDecoder)}, opts...)

	switch {
	case t.NoContent:
		return nil, requester.Exec(ctx, session, route, opts...)
	case t.Encoding == requester.EncodingJSON:
		return requester.PostJSON(ctx, session, route, opts...)
	default:
		return requester.Load[any](ctx, session, route, opts...)
	}
}

// lenientDecoder falls back to the raw text when a generic result is not JSON
var lenientDecoder = requester.DecoderFunc(func(data []byte, v any) error {
	err := requester.JSONDecoder{}.Decode(data, v)
	if err == nil {
		return nil
	}
	if out, ok := v.(*any); ok && len(data) > 0 {
		*out = string(data)
		return nil
	}
	return err
})

func bodyArgument(args map[string]any) (map[string]any, error) {
	v, ok := args[BodyArgument]
	if !ok || v == nil {
		return map[string]any{}, nil
	}
	body, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an object, got %T", BodyArgument, v)
	}
	return body, nil
}

// paramValue turns a JSON argument into a value the query encoder understands
func paramValue(v any) any {
	switch val := v.(type) {
	case string, []string, map[string]string:
		return val
	case []any:
		list := make([]string, 0, len(val))
		for _, item := range val {
			list = append(list, argString(item))
		}
		return list
	case map[string]any:
		nested := make(map[string]string, len(val))
		for k, item := range val {
			nested[k] = argString(item)
		}
		return nested
	default:
		return argString(val)
	}
}

// argString formats a scalar JSON argument; anything else is rendered as JSON
func argString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
