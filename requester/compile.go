package requester

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
)

const (
	formContentType = "application/x-www-form-urlencoded"
	jsonContentType = "application/json"
)

// Request is a compiled, transport ready request. It is never mutated after
// Compile returns it.
type Request struct {
	Method Method
	URL    *url.URL
	Header http.Header
	// Body is nil when the request has none
	Body []byte
}

// HTTPRequest builds a fresh *http.Request for this request
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, string(r.Method), r.URL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header = r.Header.Clone()
	return httpReq, nil
}

// withBody returns a copy of r carrying body. contentType is added unless the
// request already names one.
func (r *Request) withBody(body []byte, contentType string) *Request {
	out := &Request{
		Method: r.Method,
		URL:    r.URL,
		Header: r.Header.Clone(),
		Body:   body,
	}
	if out.Header.Get("Content-Type") == "" {
		out.Header.Add("Content-Type", contentType)
	}
	return out
}

// Compile turns a route into a Request. When the URL cannot be built it returns
// a nil request and an *Error of KindRequestBuild; the call must not go ahead.
func Compile(route Route) (*Request, error) {
	cfg := route.Configuration()
	if cfg == nil {
		return nil, newError(KindRequestBuild, DefaultErrorDomain, fmt.Errorf("route %s %s has no configuration", route.Method(), route.Path()))
	}
	if !route.Method().Valid() {
		return nil, newError(KindRequestBuild, cfg.Domain(), fmt.Errorf("unsupported method %q", route.Method()))
	}

	target, err := resolveURL(cfg.APIEndpoint, route.Path())
	if err != nil {
		return nil, newError(KindRequestBuild, cfg.Domain(), err)
	}

	// JSON params go into the body, never on the URL
	params := Params{}
	if route.Encoding() != EncodingJSON {
		maps.Copy(params, route.Params())
	}
	if cfg.tokenInParams() {
		params[cfg.TokenFieldName()] = cfg.AccessToken
	}
	query := EncodeQuery(URLQuery(params))

	header := make(http.Header)
	var body []byte
	switch route.Encoding() {
	case EncodingForm:
		if query != "" {
			body = []byte(query)
		}
	default:
		target.RawQuery = joinQuery(target.RawQuery, query)
	}

	// Headers are only ever added; a repeated field keeps every value
	for _, h := range cfg.CustomHeaders {
		header.Add(h.Field, h.Value)
	}
	if hr, ok := route.(HeaderRoute); ok {
		for _, h := range hr.Headers() {
			header.Add(h.Field, h.Value)
		}
	}
	if cfg.tokenInHeader() {
		header.Add("Authorization", cfg.AuthorizationHeader+" "+cfg.AccessToken)
	}
	if route.Encoding() == EncodingForm && header.Get("Content-Type") == "" {
		header.Set("Content-Type", formContentType)
	}

	return &Request{
		Method: route.Method(),
		URL:    target,
		Header: header,
		Body:   body,
	}, nil
}

// resolveURL joins the endpoint and a relative route path with exactly one slash
func resolveURL(endpoint, path string) (*url.URL, error) {
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid api endpoint %q: %w", endpoint, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api endpoint %q is not an absolute URL", endpoint)
	}

	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid route path %q: %w", path, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return nil, fmt.Errorf("route path %q must be relative", path)
	}

	target := *base
	if target.Path == "" {
		target.Path = "/"
	}
	if p := ref.EscapedPath(); p != "" {
		for _, seg := range strings.Split(ref.Path, "/") {
			if seg == "." || seg == ".." {
				return nil, fmt.Errorf("route path %q must not contain dot segments", path)
			}
		}
		// Joined verbatim; url.JoinPath would clean empty and dot segments
		joined := strings.TrimSuffix(target.EscapedPath(), "/") + "/" + strings.TrimPrefix(p, "/")
		unescaped, err := url.PathUnescape(joined)
		if err != nil {
			return nil, fmt.Errorf("invalid route path %q: %w", path, err)
		}
		target.Path = unescaped
		target.RawPath = joined
	}
	target.RawQuery = joinQuery(base.RawQuery, ref.RawQuery)
	target.Fragment = ""
	target.RawFragment = ""
	return &target, nil
}

func joinQuery(existing, extra string) string {
	switch {
	case existing == "":
		return extra
	case extra == "":
		return existing
	default:
		return existing + "&" + extra
	}
}
