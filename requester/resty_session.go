package requester

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestySession is a Session backed by a resty client
type RestySession struct {
	client *resty.Client
}

// NewRestySession creates a RestySession with the given timeout
func NewRestySession(timeout time.Duration) *RestySession {
	c := resty.New()
	c.SetTimeout(timeout)
	return &RestySession{client: c}
}

// NewRestySessionWithClient wraps a configured resty client
func NewRestySessionWithClient(client *resty.Client) *RestySession {
	return &RestySession{client: client}
}

// Do performs the request through resty
func (s *RestySession) Do(ctx context.Context, req *Request) (*Response, error) {
	r := s.client.R().SetContext(ctx)
	r.Header = req.Header.Clone()
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(string(req.Method), req.URL.String())
	if err != nil {
		if resp != nil && resp.StatusCode() > 0 {
			return adaptRestyResponse(resp), fmt.Errorf("request failed: %w", err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return adaptRestyResponse(resp), nil
}

func adaptRestyResponse(resp *resty.Response) *Response {
	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}
}
