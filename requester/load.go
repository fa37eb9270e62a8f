package requester

import (
	"context"
	"encoding/json"
	"fmt"
)

// Option customizes a single call
type Option func(*callOptions)

type callOptions struct {
	decoder Decoder
	hooks   []Hook
}

// WithDecoder replaces the default JSONDecoder
func WithDecoder(d Decoder) Option {
	return func(o *callOptions) {
		if d != nil {
			o.decoder = d
		}
	}
}

// WithHooks observes the exchange, e.g. with a Tracer
func WithHooks(hooks ...Hook) Option {
	return func(o *callOptions) {
		o.hooks = append(o.hooks, hooks...)
	}
}

func newCallOptions(opts []Option) *callOptions {
	o := &callOptions{decoder: JSONDecoder{}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Result is what the async variants hand to their completion
type Result[T any] struct {
	Value T
	Err   error
}

// Task is the handle of an in-flight async call
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel cancels the context the session runs under
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed once the completion has returned
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the completion has returned
func (t *Task) Wait() {
	<-t.done
}

// finishedTask is handed out when completion already ran before any send
func finishedTask() *Task {
	done := make(chan struct{})
	close(done)
	return &Task{cancel: func() {}, done: done}
}

// Load compiles route, sends it and decodes a successful body into T
func Load[T any](ctx context.Context, session Session, route Route, opts ...Option) (T, error) {
	o := newCallOptions(opts)
	req, err := Compile(route)
	if err != nil {
		var zero T
		return zero, err
	}
	return fetch[T](ctx, session, req, route.Configuration().Domain(), o)
}

// LoadAsync is Load with the result delivered to completion from its own
// goroutine. When the request cannot be built completion is called with the
// failure before LoadAsync returns an already finished Task.
func LoadAsync[T any](ctx context.Context, session Session, route Route, completion func(Result[T]), opts ...Option) *Task {
	o := newCallOptions(opts)
	req, err := Compile(route)
	if err != nil {
		completion(Result[T]{Err: err})
		return finishedTask()
	}
	domain := route.Configuration().Domain()
	return start(ctx, completion, func(ctx context.Context) (T, error) {
		return fetch[T](ctx, session, req, domain, o)
	})
}

// Post sends the route params as a JSON body and decodes a successful body into T
func Post[T any](ctx context.Context, session Session, route Route, opts ...Option) (T, error) {
	o := newCallOptions(opts)
	req, err := CompileJSON(route)
	if err != nil {
		var zero T
		return zero, err
	}
	return fetch[T](ctx, session, req, route.Configuration().Domain(), o)
}

// PostAsync is Post with callback delivery, see LoadAsync
func PostAsync[T any](ctx context.Context, session Session, route Route, completion func(Result[T]), opts ...Option) *Task {
	o := newCallOptions(opts)
	req, err := CompileJSON(route)
	if err != nil {
		completion(Result[T]{Err: err})
		return finishedTask()
	}
	domain := route.Configuration().Domain()
	return start(ctx, completion, func(ctx context.Context) (T, error) {
		return fetch[T](ctx, session, req, domain, o)
	})
}

// PostJSON is Post decoding into a generic JSON value
func PostJSON(ctx context.Context, session Session, route Route, opts ...Option) (any, error) {
	return Post[any](ctx, session, route, opts...)
}

// Exec sends route and ignores a successful body; only failure is reported
func Exec(ctx context.Context, session Session, route Route, opts ...Option) error {
	o := newCallOptions(opts)
	req, err := Compile(route)
	if err != nil {
		return err
	}
	return send(ctx, session, req, route.Configuration().Domain(), o)
}

// ExecAsync is Exec with callback delivery, see LoadAsync
func ExecAsync(ctx context.Context, session Session, route Route, completion func(error), opts ...Option) *Task {
	o := newCallOptions(opts)
	req, err := Compile(route)
	if err != nil {
		completion(err)
		return finishedTask()
	}
	domain := route.Configuration().Domain()
	return start(ctx, func(r Result[struct{}]) { completion(r.Err) }, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, send(ctx, session, req, domain, o)
	})
}

// CompileJSON is Compile with the route params serialized into a JSON body.
// Serialization failures are KindParamEncoding errors.
func CompileJSON(route Route) (*Request, error) {
	req, err := Compile(route)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(route.Params())
	if err != nil {
		return nil, newError(KindParamEncoding, route.Configuration().Domain(), fmt.Errorf("failed to marshal params: %w", err))
	}
	return req.withBody(body, jsonContentType), nil
}

func fetch[T any](ctx context.Context, session Session, req *Request, domain string, o *callOptions) (T, error) {
	resp, err := exchange(ctx, session, req, o.hooks)
	if failure := classify(domain, resp, err); failure != nil {
		var zero T
		return zero, failure
	}
	return decodeBody[T](domain, resp, o.decoder)
}

func send(ctx context.Context, session Session, req *Request, domain string, o *callOptions) error {
	resp, err := exchange(ctx, session, req, o.hooks)
	if failure := classify(domain, resp, err); failure != nil {
		return failure
	}
	return nil
}

func exchange(ctx context.Context, session Session, req *Request, hooks []Hook) (*Response, error) {
	for _, h := range hooks {
		h.Before(req)
	}
	resp, err := session.Do(ctx, req)
	for _, h := range hooks {
		h.After(req, resp, err)
	}
	return resp, err
}

// start runs call on its own goroutine and hands the result to completion
func start[T any](ctx context.Context, completion func(Result[T]), call func(context.Context) (T, error)) *Task {
	ctx, cancel := context.WithCancel(ctx)
	task := &Task{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(task.done)
		defer cancel()
		value, err := call(ctx)
		completion(Result[T]{Value: value, Err: err})
	}()
	return task
}
