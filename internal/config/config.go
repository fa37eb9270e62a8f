package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brizzai/requestkit/internal/logger"
	"github.com/brizzai/requestkit/requester"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("requestkit version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Server          ServerConfig   `mapstructure:"server"`
	Logging         logger.Config  `mapstructure:"logging"`
	Endpoint        EndpointConfig `mapstructure:"endpoint"`
	Trace           TraceConfig    `mapstructure:"trace"`
	Metrics         MetricsConfig  `mapstructure:"metrics"`
	SwaggerFile     string         `mapstructure:"swagger_file"`
	AdjustmentsFile string         `mapstructure:"adjustments_file"`
}

// TransportType selects the Session implementation
type TransportType string

const (
	TransportHTTP  TransportType = "http"
	TransportResty TransportType = "resty"
)

// EndpointConfig describes the API every route is sent to
type EndpointConfig struct {
	BaseURL          string             `mapstructure:"base_url"`
	AccessToken      string             `mapstructure:"access_token"`
	AccessTokenField string             `mapstructure:"access_token_field"`
	AuthScheme       string             `mapstructure:"auth_scheme"`
	ErrorDomain      string             `mapstructure:"error_domain"`
	Headers          []requester.Header `mapstructure:"headers"`
	Timeout          time.Duration      `mapstructure:"timeout"`
	Transport        TransportType      `mapstructure:"transport"`
}

// ClientConfiguration builds the requester configuration for this endpoint
func (e EndpointConfig) ClientConfiguration() *requester.Configuration {
	return requester.NewConfiguration(e.BaseURL,
		requester.WithAccessToken(e.AccessToken),
		requester.WithAccessTokenFieldName(e.AccessTokenField),
		requester.WithAuthorizationHeader(e.AuthScheme),
		requester.WithErrorDomain(e.ErrorDomain),
		requester.WithCustomHeaders(e.Headers...),
	)
}

// NewSession creates the Session selected by Transport
func (e EndpointConfig) NewSession() (requester.Session, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	switch e.Transport {
	case TransportHTTP, "":
		session := requester.NewHTTPSession()
		session.SetTimeout(timeout)
		return session, nil
	case TransportResty:
		return requester.NewRestySession(timeout), nil
	default:
		return nil, fmt.Errorf("unsupported transport: %s", e.Transport)
	}
}

// TraceConfig turns on request tracing
type TraceConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Options []string `mapstructure:"options"`
}

// Tracer returns the configured tracer, or nil when tracing is off
func (t TraceConfig) Tracer() (*requester.Tracer, error) {
	if !t.Enabled {
		return nil, nil
	}
	opts := make([]requester.TraceOption, 0, len(t.Options))
	for _, name := range t.Options {
		opt, ok := requester.ParseTraceOption(name)
		if !ok {
			return nil, fmt.Errorf("unknown trace option: %s", name)
		}
		opts = append(opts, opt)
	}
	return requester.NewTracer(nil, opts...), nil
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type ServerMode string

const (
	ServerModeSSE   ServerMode = "sse"
	ServerModeSTDIO ServerMode = "stdio"
	ServerModeHTTP  ServerMode = "http"
)

type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	Host    string     `mapstructure:"host"`
	Mode    ServerMode `mapstructure:"mode"`
	Name    string     `mapstructure:"name"`
	Version string     `mapstructure:"version"`
}

// BindFlags registers the flags Load understands on fs
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a config file (default ./config.yaml or /etc/requestkit/config.yaml)")
	fs.String("mode", "", "Server mode (stdio|sse|http)")
	fs.String("swagger-file", "", "Path to the swagger/OpenAPI file")
	fs.String("adjustments-file", "", "Path to the adjustments file")
	fs.String("base-url", "", "API endpoint the routes are resolved against")
	fs.String("access-token", "", "Access token sent with every request")
	fs.String("auth-scheme", "", "Send the token as 'Authorization: <scheme> <token>' instead of a param")
}

var envKeys = []string{
	"swagger_file",
	"adjustments_file",
	"endpoint.base_url",
	"endpoint.access_token",
	"endpoint.access_token_field",
	"endpoint.auth_scheme",
	"endpoint.error_domain",
	"trace.enabled",
	"metrics.enabled",
	"logging.output_path",
	"logging.disable_console",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", string(ServerModeSTDIO))
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.name", "requestkit")
	v.SetDefault("server.version", version)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("endpoint.timeout", "30s")
	v.SetDefault("endpoint.transport", string(TransportHTTP))
	v.SetDefault("metrics.path", "/metrics")
}

// Load reads config.yaml, REQUESTKIT_* environment variables and the flags in fs
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("REQUESTKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper already knows about
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, err
		}
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/requestkit")
	}
	if err := v.ReadInConfig(); err != nil {
		// flags and environment may carry everything
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if mode := v.GetString("mode"); mode != "" {
		cfg.Server.Mode = ServerMode(mode)
	}
	switch cfg.Server.Mode {
	case ServerModeSSE, ServerModeSTDIO, ServerModeHTTP:
	default:
		return nil, fmt.Errorf("unsupported server mode: %s", cfg.Server.Mode)
	}

	if swaggerFile := v.GetString("swagger-file"); swaggerFile != "" {
		cfg.SwaggerFile = swaggerFile
	}
	if cfg.SwaggerFile == "" {
		return nil, fmt.Errorf("swagger file is required, please adjust the config or pass --swagger-file or REQUESTKIT_SWAGGER_FILE environment variable")
	}
	if adjustmentsFile := v.GetString("adjustments-file"); adjustmentsFile != "" {
		cfg.AdjustmentsFile = adjustmentsFile
	}

	if baseURL := v.GetString("base-url"); baseURL != "" {
		cfg.Endpoint.BaseURL = baseURL
	}
	if token := v.GetString("access-token"); token != "" {
		cfg.Endpoint.AccessToken = token
	}
	if scheme := v.GetString("auth-scheme"); scheme != "" {
		cfg.Endpoint.AuthScheme = scheme
	}
	if err := cfg.Endpoint.ClientConfiguration().Validate(); err != nil {
		return nil, fmt.Errorf("endpoint: %w", err)
	}

	return &cfg, nil
}

// Module provides the loaded Config and the requester collaborators built
// from it. It expects a *pflag.FlagSet to be supplied.
var Module = fx.Module("config",
	fx.Provide(
		Load,
		func(cfg *Config) *requester.Configuration {
			return cfg.Endpoint.ClientConfiguration()
		},
		func(cfg *Config) (requester.Session, error) {
			return cfg.Endpoint.NewSession()
		},
	),
)
