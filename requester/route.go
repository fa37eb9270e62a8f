package requester

import (
	"fmt"
	"maps"
	"strings"
)

// Method is the HTTP verb a route is sent with
type Method string

const (
	GET    Method = "GET"
	POST   Method = "POST"
	PUT    Method = "PUT"
	PATCH  Method = "PATCH"
	DELETE Method = "DELETE"
)

// Valid reports whether m is one of the supported verbs
func (m Method) Valid() bool {
	switch m {
	case GET, POST, PUT, PATCH, DELETE:
		return true
	}
	return false
}

// Encoding decides where the params of a route travel
type Encoding int

const (
	// EncodingURL puts params on the query string
	EncodingURL Encoding = iota
	// EncodingForm sends params as an application/x-www-form-urlencoded body
	EncodingForm
	// EncodingJSON keeps params off the URL; JSON posts serialize them into the body
	EncodingJSON
)

func (e Encoding) String() string {
	switch e {
	case EncodingURL:
		return "url"
	case EncodingForm:
		return "form"
	case EncodingJSON:
		return "json"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// ParseEncoding maps "url", "form" and "json" to an Encoding
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "url", "query":
		return EncodingURL, nil
	case "form":
		return EncodingForm, nil
	case "json":
		return EncodingJSON, nil
	default:
		return EncodingURL, fmt.Errorf("unknown encoding: %q", s)
	}
}

// Header is a single header line. Header lists keep their order and may repeat a field.
type Header struct {
	Field string `json:"field" mapstructure:"field" yaml:"field" validate:"required"`
	Value string `json:"value" mapstructure:"value" yaml:"value"`
}

// Params holds route parameters. Values may be a string, a []string or a string
// keyed map; anything else is skipped by the query encoder.
type Params map[string]any

// Route is the minimal contract a route family has to supply. Compile and the
// Load/Post/Exec helpers build everything else on top of it.
type Route interface {
	Method() Method
	Path() string
	Encoding() Encoding
	Params() Params
	Configuration() *Configuration
}

// HeaderRoute is implemented by routes that add their own headers
type HeaderRoute interface {
	Route
	Headers() []Header
}

// RouteDescriptor is a ready-made, immutable Route
type RouteDescriptor struct {
	method   Method
	path     string
	encoding Encoding
	params   Params
	headers  []Header
	config   *Configuration
}

// RouteOption customizes a RouteDescriptor at construction time
type RouteOption func(*RouteDescriptor)

// WithEncoding sets the params encoding (EncodingURL by default)
func WithEncoding(e Encoding) RouteOption {
	return func(r *RouteDescriptor) {
		r.encoding = e
	}
}

// WithParams sets the route params. The map is copied.
func WithParams(p Params) RouteOption {
	return func(r *RouteDescriptor) {
		r.params = maps.Clone(p)
	}
}

// WithHeaders appends route level headers
func WithHeaders(headers ...Header) RouteOption {
	return func(r *RouteDescriptor) {
		r.headers = append(r.headers, headers...)
	}
}

// NewRoute creates a RouteDescriptor for path, relative to the configuration's API endpoint
func NewRoute(cfg *Configuration, method Method, path string, opts ...RouteOption) *RouteDescriptor {
	r := &RouteDescriptor{
		method:   method,
		path:     path,
		encoding: EncodingURL,
		config:   cfg,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.params == nil {
		r.params = Params{}
	}
	return r
}

func (r *RouteDescriptor) Method() Method                { return r.method }
func (r *RouteDescriptor) Path() string                  { return r.path }
func (r *RouteDescriptor) Encoding() Encoding            { return r.encoding }
func (r *RouteDescriptor) Configuration() *Configuration { return r.config }

// Params returns a copy of the route params
func (r *RouteDescriptor) Params() Params { return maps.Clone(r.params) }

// Headers returns the route level headers
func (r *RouteDescriptor) Headers() []Header {
	return append([]Header(nil), r.headers...)
}

// String renders the route as "METHOD path"
func (r *RouteDescriptor) String() string {
	return fmt.Sprintf("%s %s", r.method, r.path)
}
