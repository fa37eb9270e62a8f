package requester

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultAccessTokenFieldName is the param the access token is sent under
	DefaultAccessTokenFieldName = "access_token"
	// DefaultErrorDomain tags errors when the configuration does not name a domain
	DefaultErrorDomain = "com.nerdishbynature.RequestKit"
)

var validate = validator.New()

// Configuration describes one API client. It is shared by every route of that
// client and must not be modified while requests are in flight.
type Configuration struct {
	// APIEndpoint is the base URL every route path is resolved against
	APIEndpoint string `validate:"required,url"`
	// AccessToken is sent with every request when set
	AccessToken string
	// AccessTokenFieldName overrides DefaultAccessTokenFieldName
	AccessTokenFieldName string
	// AuthorizationHeader is the auth scheme (e.g. "Bearer"). When set the token
	// goes into an Authorization header instead of the params.
	AuthorizationHeader string
	// ErrorDomain overrides DefaultErrorDomain
	ErrorDomain string
	// CustomHeaders are added to every request
	CustomHeaders []Header `validate:"dive"`
}

// ConfigOption customizes a Configuration
type ConfigOption func(*Configuration)

// WithAccessToken sets the access token
func WithAccessToken(token string) ConfigOption {
	return func(c *Configuration) { c.AccessToken = token }
}

// WithAccessTokenFieldName sets the param name used for the access token
func WithAccessTokenFieldName(name string) ConfigOption {
	return func(c *Configuration) { c.AccessTokenFieldName = name }
}

// WithAuthorizationHeader moves the token into "Authorization: <scheme> <token>"
func WithAuthorizationHeader(scheme string) ConfigOption {
	return func(c *Configuration) { c.AuthorizationHeader = scheme }
}

// WithErrorDomain sets the domain tag of errors produced for this client
func WithErrorDomain(domain string) ConfigOption {
	return func(c *Configuration) { c.ErrorDomain = domain }
}

// WithCustomHeaders appends headers sent with every request
func WithCustomHeaders(headers ...Header) ConfigOption {
	return func(c *Configuration) { c.CustomHeaders = append(c.CustomHeaders, headers...) }
}

// NewConfiguration creates a Configuration for the given API endpoint
func NewConfiguration(apiEndpoint string, opts ...ConfigOption) *Configuration {
	c := &Configuration{APIEndpoint: apiEndpoint}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TokenFieldName returns the param name for the access token
func (c *Configuration) TokenFieldName() string {
	if c.AccessTokenFieldName == "" {
		return DefaultAccessTokenFieldName
	}
	return c.AccessTokenFieldName
}

// Domain returns the error domain tag
func (c *Configuration) Domain() string {
	if c == nil || c.ErrorDomain == "" {
		return DefaultErrorDomain
	}
	return c.ErrorDomain
}

// Validate checks the configuration before it is used
func (c *Configuration) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration is nil")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// tokenInParams reports whether the token is injected into the params
func (c *Configuration) tokenInParams() bool {
	return c.AccessToken != "" && c.AuthorizationHeader == ""
}

// tokenInHeader reports whether the token travels in the Authorization header
func (c *Configuration) tokenInHeader() bool {
	return c.AccessToken != "" && c.AuthorizationHeader != ""
}
