package requester_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/brizzai/requestkit/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTracer(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tracer := requester.NewTracer(zap.New(core), requester.TraceRequestHeaders, requester.TraceResponseBody)

	session := &fakeSession{status: http.StatusOK, body: `{"login":"octocat"}`}
	cfg := requester.NewConfiguration("https://example.com", requester.WithAccessToken("secret"), requester.WithAuthorizationHeader("Bearer"))

	_, err := requester.Load[testUser](context.Background(), session, requester.NewRoute(cfg, requester.GET, "user"), requester.WithHooks(tracer))
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)

	before := entries[0].ContextMap()
	after := entries[1].ContextMap()
	assert.Equal(t, "request", entries[0].Message)
	assert.Equal(t, "https://example.com/user", before["url"])
	assert.NotEmpty(t, before["trace_id"])
	assert.Equal(t, before["trace_id"], after["trace_id"])
	assert.NotContains(t, before, "request_body")

	headers, ok := before["request_headers"].(map[string][]string)
	require.True(t, ok)
	assert.Equal(t, []string{"<redacted>"}, headers["Authorization"])

	assert.Equal(t, "response", entries[1].Message)
	assert.EqualValues(t, 200, after["status"])
	assert.Equal(t, `{"login":"octocat"}`, after["response_body"])
	assert.NotContains(t, after, "response_headers")
}

func TestTracer_TransportError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tracer := requester.NewTracer(zap.New(core))

	session := &fakeSession{err: errors.New("connection refused")}
	err := requester.Exec(context.Background(), session, requester.NewRoute(testConfig(), requester.GET, "user"), requester.WithHooks(tracer))
	require.Error(t, err)

	entries := logs.FilterMessage("response").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "connection refused", entries[0].ContextMap()["error"])
}

func TestParseTraceOption(t *testing.T) {
	opt, ok := requester.ParseTraceOption("response_body")
	assert.True(t, ok)
	assert.Equal(t, requester.TraceResponseBody, opt)

	_, ok = requester.ParseTraceOption("everything")
	assert.False(t, ok)
}
