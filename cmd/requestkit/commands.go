package main

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/brizzai/requestkit/internal/config"
	"github.com/brizzai/requestkit/internal/logger"
	"github.com/brizzai/requestkit/internal/metrics"
	"github.com/brizzai/requestkit/internal/parser"
	"github.com/brizzai/requestkit/internal/server"
	"github.com/brizzai/requestkit/internal/server/tool"
	"github.com/brizzai/requestkit/requester"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// env is what every one-shot command needs
type env struct {
	config    *config.Config
	catalogue *parser.SwaggerParser
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return nil, err
	}

	catalogue := parser.NewSwaggerParser(parser.NewAdjuster())
	if err := catalogue.Init(cfg.SwaggerFile, cfg.AdjustmentsFile); err != nil {
		return nil, err
	}
	return &env{config: cfg, catalogue: catalogue}, nil
}

func (e *env) lookup(name string) (*parser.RouteTemplate, error) {
	route, ok := e.catalogue.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown route %q, see 'requestkit routes'", name)
	}
	return route, nil
}

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the routes of the OpenAPI document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			data := pterm.TableData{{"Tool", "Method", "Path", "Encoding"}}
			for _, route := range e.catalogue.Routes() {
				data = append(data, []string{route.Name, string(route.Method), route.Path, route.Encoding.String()})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}
}

func newCompileCmd() *cobra.Command {
	var params []string
	cmd := &cobra.Command{
		Use:   "compile <tool>",
		Short: "Print the request a route compiles to without sending it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			tmpl, err := e.lookup(args[0])
			if err != nil {
				return err
			}
			callArgs, err := parseParams(params)
			if err != nil {
				return err
			}

			route, err := tmpl.Bind(e.config.Endpoint.ClientConfiguration(), callArgs)
			if err != nil {
				return err
			}
			compile := requester.Compile
			if tmpl.Encoding == requester.EncodingJSON {
				compile = requester.CompileJSON
			}
			req, err := compile(route)
			if err != nil {
				return err
			}

			pterm.Println(formatRequest(req))
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Route argument as key=value; JSON values are decoded")
	return cmd
}

func newCallCmd() *cobra.Command {
	var params []string
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Send a route once and print the decoded response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			tmpl, err := e.lookup(args[0])
			if err != nil {
				return err
			}
			callArgs, err := parseParams(params)
			if err != nil {
				return err
			}

			session, err := e.config.Endpoint.NewSession()
			if err != nil {
				return err
			}
			var opts []requester.Option
			tracer, err := e.config.Trace.Tracer()
			if err != nil {
				return err
			}
			if tracer != nil {
				opts = append(opts, requester.WithHooks(tracer))
			}

			result, err := tmpl.Execute(cmd.Context(), session, e.config.Endpoint.ClientConfiguration(), callArgs, opts...)
			if err != nil {
				if failure, ok := requester.AsError(err); ok {
					pterm.Error.Printfln("%s failed (%s)", tmpl.Name, failure.Kind)
				}
				return fmt.Errorf("%s", tool.ErrorText(err))
			}

			pterm.Success.Printfln("%s %s", tmpl.Method, tmpl.Path)
			if result != nil {
				out, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				pterm.Println(string(out))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Route argument as key=value; JSON values are decoded")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve every route as an MCP tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				fx.Supply(cmd.Flags()),
				fx.WithLogger(func() fxevent.Logger {
					return &fxevent.ZapLogger{Logger: logger.GetLogger()}
				}),
				config.Module,
				parser.Module,
				metrics.Module,
				server.Module,
				fx.Invoke(initLogging),
				fx.Invoke(runServer),
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func initLogging(cfg *config.Config) error {
	return logger.InitLogger(&cfg.Logging)
}

// runServer ties the server to the fx lifecycle. The app stops when the server
// returns, e.g. when the STDIO client goes away.
func runServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, srv *server.Server) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(ctx); err != nil {
					logger.Error("Server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
					return
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			_ = logger.Sync()
			return nil
		},
	})
}

// parseParams reads key=value pairs. Values that parse as JSON are decoded,
// anything else stays a string.
func parseParams(pairs []string) (map[string]any, error) {
	args := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid param %q, expected key=value", pair)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			args[key] = decoded
			continue
		}
		args[key] = value
	}
	return args, nil
}

func formatRequest(req *requester.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", req.Method, req.URL)
	for _, field := range slices.Sorted(maps.Keys(req.Header)) {
		for _, value := range req.Header[field] {
			if field == "Authorization" {
				value = "<redacted>"
			}
			fmt.Fprintf(&b, "%s: %s\n", field, value)
		}
	}
	if req.Body != nil {
		fmt.Fprintf(&b, "\n%s\n", req.Body)
	}
	return strings.TrimRight(b.String(), "\n")
}
