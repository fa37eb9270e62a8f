package requester_test

import (
	"testing"

	"github.com/brizzai/requestkit/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	params := requester.Params{"key1": "value1", "key2": "value2"}

	tests := []struct {
		name         string
		config       *requester.Configuration
		route        func(cfg *requester.Configuration) requester.Route
		checkRequest func(t *testing.T, req *requester.Request)
	}{
		{
			name:   "URL encoded GET with access token",
			config: requester.NewConfiguration("https://example.com/api/v1/", requester.WithAccessToken("1234")),
			route: func(cfg *requester.Configuration) requester.Route {
				return requester.NewRoute(cfg, requester.GET, "some_route", requester.WithParams(params))
			},
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Equal(t, "https://example.com/api/v1/some_route?access_token=1234&key1=value1&key2=value2", req.URL.String())
				assert.Equal(t, requester.GET, req.Method)
				assert.Nil(t, req.Body)
				assert.Empty(t, req.Header.Get("Authorization"))
			},
		},
		{
			name:   "form encoded POST",
			config: requester.NewConfiguration("https://example.com/api/v1/", requester.WithAccessToken("1234")),
			route: func(cfg *requester.Configuration) requester.Route {
				return requester.NewRoute(cfg, requester.POST, "some_route",
					requester.WithParams(params),
					requester.WithEncoding(requester.EncodingForm))
			},
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Equal(t, "https://example.com/api/v1/some_route", req.URL.String())
				assert.Empty(t, req.URL.RawQuery)
				assert.Equal(t, "access_token=1234&key1=value1&key2=value2", string(req.Body))
				assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
				assert.Equal(t, requester.POST, req.Method)
			},
		},
		{
			name:   "JSON encoding keeps params off the URL",
			config: requester.NewConfiguration("https://example.com"),
			route: func(cfg *requester.Configuration) requester.Route {
				return requester.NewRoute(cfg, requester.POST, "some_route",
					requester.WithParams(params),
					requester.WithEncoding(requester.EncodingJSON))
			},
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Equal(t, "https://example.com/some_route", req.URL.String())
				assert.Nil(t, req.Body)
			},
		},
		{
			name:   "JSON encoding still carries the token",
			config: requester.NewConfiguration("https://example.com", requester.WithAccessToken("1234")),
			route: func(cfg *requester.Configuration) requester.Route {
				return requester.NewRoute(cfg, requester.GET, "some_route",
					requester.WithParams(params),
					requester.WithEncoding(requester.EncodingJSON))
			},
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Equal(t, "https://example.com/some_route?access_token=1234", req.URL.String())
			},
		},
		{
			name: "authorization scheme moves the token into a header",
			config: requester.NewConfiguration("https://example.com/api/v1/",
				requester.WithAccessToken("1234"),
				requester.WithAuthorizationHeader("Bearer")),
			route: func(cfg *requester.Configuration) requester.Route {
				return requester.NewRoute(cfg, requester.GET, "some_route", requester.WithParams(params))
			},
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Equal(t, "https://example.com/api/v1/some_route?key1=value1&key2=value2", req.URL.String())
				assert.NotContains(t, req.URL.RawQuery, "access_token")
				assert.Equal(t, []string{"Bearer 1234"}, req.Header.Values("Authorization"))
			},
		},
		{
			name: "authorization scheme with form encoding",
			config: requester.NewConfiguration("https://example.com",
				requester.WithAccessToken("1234"),
				requester.WithAuthorizationHeader("token")),
			route: func(cfg *requester.Configuration) requester.Route {
				return requester.NewRoute(cfg, requester.PUT, "some_route",
					requester.WithParams(params),
					requester.WithEncoding(requester.EncodingForm))
			},
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Equal(t, "key1=value1&key2=value2", string(req.Body))
				assert.Equal(t, "token 1234", req.Header.Get("Authorization"))
			},
		},
		{
			name:   "custom token field name",
			config: requester.NewConfiguration("https://example.com", requester.WithAccessToken("1234"), requester.WithAccessTokenFieldName("custom_field")),
			route: func(cfg *requester.Configuration) requester.Route {
				return requester.NewRoute(cfg, requester.GET, "some_route")
			},
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Equal(t, "https://example.com/some_route?custom_field=1234", req.URL.String())
			},
		},
		{
			name:   "no params means no query",
			config: requester.NewConfiguration("https://example.com/api"),
			route: func(cfg *requester.Configuration) requester.Route {
				return requester.NewRoute(cfg, requester.DELETE, "/items/1")
			},
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Equal(t, "https://example.com/api/items/1", req.URL.String())
				assert.False(t, req.URL.ForceQuery)
			},
		},
		{
			name: "headers are additive in order",
			config: requester.NewConfiguration("https://example.com",
				requester.WithAccessToken("1234"),
				requester.WithAuthorizationHeader("Bearer"),
				requester.WithCustomHeaders(
					requester.Header{Field: "x-custom-header", Value: "config"},
					requester.Header{Field: "Authorization", Value: "Basic abc"},
				)),
			route: func(cfg *requester.Configuration) requester.Route {
				return requester.NewRoute(cfg, requester.GET, "some_route",
					requester.WithHeaders(requester.Header{Field: "X-Custom-Header", Value: "route"}))
			},
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Equal(t, []string{"config", "route"}, req.Header.Values("X-Custom-Header"))
				assert.Equal(t, []string{"Basic abc", "Bearer 1234"}, req.Header.Values("Authorization"))
			},
		},
		{
			name: "form content type yields to a caller header",
			config: requester.NewConfiguration("https://example.com",
				requester.WithCustomHeaders(requester.Header{Field: "Content-Type", Value: "text/plain"})),
			route: func(cfg *requester.Configuration) requester.Route {
				return requester.NewRoute(cfg, requester.POST, "some_route",
					requester.WithParams(params),
					requester.WithEncoding(requester.EncodingForm))
			},
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Equal(t, []string{"text/plain"}, req.Header.Values("Content-Type"))
				assert.Equal(t, "key1=value1&key2=value2", string(req.Body))
			},
		},
		{
			name:   "route content type on a form route",
			config: requester.NewConfiguration("https://example.com"),
			route: func(cfg *requester.Configuration) requester.Route {
				return requester.NewRoute(cfg, requester.PUT, "some_route",
					requester.WithEncoding(requester.EncodingForm),
					requester.WithHeaders(requester.Header{Field: "content-type", Value: "application/x-www-form-urlencoded; charset=utf-8"}))
			},
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Equal(t, []string{"application/x-www-form-urlencoded; charset=utf-8"}, req.Header.Values("Content-Type"))
			},
		},
		{
			name:   "query in the path is kept",
			config: requester.NewConfiguration("https://example.com/", requester.WithAccessToken("1234")),
			route: func(cfg *requester.Configuration) requester.Route {
				return requester.NewRoute(cfg, requester.GET, "search?sort=asc")
			},
			checkRequest: func(t *testing.T, req *requester.Request) {
				assert.Equal(t, "https://example.com/search?sort=asc&access_token=1234", req.URL.String())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := requester.Compile(tt.route(tt.config))
			require.NoError(t, err)
			require.NotNil(t, req)
			tt.checkRequest(t, req)
		})
	}
}

func TestCompile_JoinsPathWithOneSlash(t *testing.T) {
	tests := []struct {
		endpoint string
		path     string
		expected string
	}{
		{"https://example.com/api/v1/", "some_route", "https://example.com/api/v1/some_route"},
		{"https://example.com/api/v1", "some_route", "https://example.com/api/v1/some_route"},
		{"https://example.com/api/v1/", "/some_route", "https://example.com/api/v1/some_route"},
		{"https://example.com/api/v1", "/some_route", "https://example.com/api/v1/some_route"},
		{"https://example.com", "some_route", "https://example.com/some_route"},
		{"https://example.com", "users/octocat/repos/", "https://example.com/users/octocat/repos/"},
		{"https://example.com/api", "", "https://example.com/api"},
		{"https://example.com/api/v1/", "a//b", "https://example.com/api/v1/a//b"},
		{"https://example.com/api/v1/", "a%2Fb/c", "https://example.com/api/v1/a%2Fb/c"},
		{"https://example.com/api%20docs/", "x y", "https://example.com/api%20docs/x%20y"},
		{"https://example.com/api/v1/", "...", "https://example.com/api/v1/..."},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint+"+"+tt.path, func(t *testing.T) {
			cfg := requester.NewConfiguration(tt.endpoint)
			req, err := requester.Compile(requester.NewRoute(cfg, requester.GET, tt.path))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, req.URL.String())
		})
	}
}

func TestCompile_Failures(t *testing.T) {
	tests := []struct {
		name  string
		route requester.Route
	}{
		{
			name:  "missing configuration",
			route: requester.NewRoute(nil, requester.GET, "some_route"),
		},
		{
			name:  "relative endpoint",
			route: requester.NewRoute(requester.NewConfiguration("example.com/api"), requester.GET, "some_route"),
		},
		{
			name:  "malformed endpoint",
			route: requester.NewRoute(requester.NewConfiguration("https://exa mple.com/%zz"), requester.GET, "some_route"),
		},
		{
			name:  "absolute route path",
			route: requester.NewRoute(requester.NewConfiguration("https://example.com"), requester.GET, "https://other.com/x"),
		},
		{
			name:  "parent segment",
			route: requester.NewRoute(requester.NewConfiguration("https://example.com/api/v1/"), requester.GET, "../escape"),
		},
		{
			name:  "nested parent segment",
			route: requester.NewRoute(requester.NewConfiguration("https://example.com/api/v1/"), requester.GET, "users/../../admin"),
		},
		{
			name:  "escaped parent segment",
			route: requester.NewRoute(requester.NewConfiguration("https://example.com/api/v1/"), requester.GET, "%2E%2E/escape"),
		},
		{
			name:  "current segment",
			route: requester.NewRoute(requester.NewConfiguration("https://example.com/api/v1/"), requester.GET, "./x"),
		},
		{
			name:  "unsupported method",
			route: requester.NewRoute(requester.NewConfiguration("https://example.com"), requester.Method("TRACE"), "x"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := requester.Compile(tt.route)
			assert.Nil(t, req)
			require.Error(t, err)
			assert.True(t, requester.IsKind(err, requester.KindRequestBuild))
		})
	}
}

func TestCompile_DoesNotMutateRoute(t *testing.T) {
	cfg := requester.NewConfiguration("https://example.com", requester.WithAccessToken("1234"))
	params := requester.Params{"key1": "value1"}
	route := requester.NewRoute(cfg, requester.GET, "some_route", requester.WithParams(params))

	_, err := requester.Compile(route)
	require.NoError(t, err)

	assert.Equal(t, requester.Params{"key1": "value1"}, route.Params())
	assert.Equal(t, requester.Params{"key1": "value1"}, params)
}

func TestRequest_HTTPRequest(t *testing.T) {
	cfg := requester.NewConfiguration("https://example.com", requester.WithCustomHeaders(requester.Header{Field: "X-A", Value: "1"}))
	req, err := requester.Compile(requester.NewRoute(cfg, requester.PATCH, "items/1",
		requester.WithEncoding(requester.EncodingForm),
		requester.WithParams(requester.Params{"name": "x"})))
	require.NoError(t, err)

	httpReq, err := req.HTTPRequest(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "PATCH", httpReq.Method)
	assert.Equal(t, "https://example.com/items/1", httpReq.URL.String())
	assert.Equal(t, "1", httpReq.Header.Get("X-A"))

	// the compiled request is not shared with the http.Request
	httpReq.Header.Set("X-A", "2")
	assert.Equal(t, "1", req.Header.Get("X-A"))
}

func TestCompileJSON(t *testing.T) {
	cfg := requester.NewConfiguration("https://example.com/api", requester.WithAccessToken("1234"))
	route := requester.NewRoute(cfg, requester.POST, "users",
		requester.WithEncoding(requester.EncodingJSON),
		requester.WithParams(requester.Params{"name": "octocat", "admin": true}))

	req, err := requester.CompileJSON(route)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/api/users?access_token=1234", req.URL.String())
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"name": "octocat", "admin": true}`, string(req.Body))

	plain, err := requester.Compile(route)
	require.NoError(t, err)
	assert.Nil(t, plain.Body)
}
