package requester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// Response is what a Session hands back for one exchange
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Session executes compiled requests. Networking, TLS, retries and pooling are
// its business; cancellation goes through ctx. When the exchange fails after a
// status line was received, Do returns both the partial response and the error.
type Session interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// SessionFunc adapts a function to Session
type SessionFunc func(ctx context.Context, req *Request) (*Response, error)

func (f SessionFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPSession is a Session backed by net/http
type HTTPSession struct {
	client *http.Client
}

// NewHTTPSession creates an HTTPSession with a 30 second timeout
func NewHTTPSession() *HTTPSession {
	return &HTTPSession{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// NewHTTPSessionWithClient wraps an existing client
func NewHTTPSessionWithClient(client *http.Client) *HTTPSession {
	return &HTTPSession{client: client}
}

// SetTimeout sets the timeout for the HTTP client
func (s *HTTPSession) SetTimeout(timeout time.Duration) {
	s.client.Timeout = timeout
}

// Do performs the request and reads the whole body
func (s *HTTPSession) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("failed to read response body: %w", err)
	}
	out.Body = body
	return out, nil
}
