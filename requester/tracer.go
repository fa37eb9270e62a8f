package requester

import (
	"sync"

	"github.com/brizzai/requestkit/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hook observes every exchange a call makes. Implementations must be safe for
// concurrent use.
type Hook interface {
	Before(req *Request)
	After(req *Request, resp *Response, err error)
}

// TraceOption selects what a Tracer logs besides the URL
type TraceOption int

const (
	TraceRequestHeaders TraceOption = iota
	TraceRequestBody
	TraceResponseHeaders
	TraceResponseBody
)

// ParseTraceOption maps config names to a TraceOption
func ParseTraceOption(name string) (TraceOption, bool) {
	switch name {
	case "request_headers":
		return TraceRequestHeaders, true
	case "request_body":
		return TraceRequestBody, true
	case "response_headers":
		return TraceResponseHeaders, true
	case "response_body":
		return TraceResponseBody, true
	}
	return 0, false
}

// Tracer logs requests and responses through zap. Each exchange gets a trace id
// so the before and after lines can be matched.
type Tracer struct {
	log     *zap.Logger
	options map[TraceOption]bool
	ids     sync.Map // *Request -> trace id
}

// NewTracer creates a Tracer logging to log, or to the global logger when nil
func NewTracer(log *zap.Logger, opts ...TraceOption) *Tracer {
	if log == nil {
		log = logger.GetLogger()
	}
	t := &Tracer{
		log:     log.Named("trace"),
		options: make(map[TraceOption]bool, len(opts)),
	}
	for _, opt := range opts {
		t.options[opt] = true
	}
	return t
}

// Before logs the outgoing request
func (t *Tracer) Before(req *Request) {
	id := uuid.NewString()
	t.ids.Store(req, id)

	fields := []zap.Field{
		zap.String("trace_id", id),
		zap.String("method", string(req.Method)),
		zap.String("url", req.URL.String()),
	}
	if t.options[TraceRequestHeaders] {
		fields = append(fields, zap.Any("request_headers", redact(req.Header)))
	}
	if t.options[TraceRequestBody] && req.Body != nil {
		fields = append(fields, zap.ByteString("request_body", req.Body))
	}
	t.log.Info("request", fields...)
}

// After logs the outcome of the exchange
func (t *Tracer) After(req *Request, resp *Response, err error) {
	id, _ := t.ids.LoadAndDelete(req)
	traceID, _ := id.(string)

	fields := []zap.Field{zap.String("trace_id", traceID)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if resp != nil {
		fields = append(fields, zap.Int("status", resp.StatusCode))
		if t.options[TraceResponseHeaders] {
			fields = append(fields, zap.Any("response_headers", resp.Header))
		}
		if t.options[TraceResponseBody] && resp.Body != nil {
			fields = append(fields, zap.ByteString("response_body", resp.Body))
		}
	}
	t.log.Info("response", fields...)
}

func redact(header map[string][]string) map[string][]string {
	out := make(map[string][]string, len(header))
	for k, v := range header {
		if k == "Authorization" {
			out[k] = []string{"<redacted>"}
			continue
		}
		out[k] = v
	}
	return out
}
