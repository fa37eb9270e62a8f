package requester_test

import (
	"testing"

	"github.com/brizzai/requestkit/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchQuery struct {
	Query   string   `schema:"q"`
	Labels  []string `schema:"labels"`
	Page    int      `schema:"page,omitempty"`
	Ignored string   `schema:"-"`
}

func TestStructParams(t *testing.T) {
	params, err := requester.StructParams(&searchQuery{
		Query:   "bug fix",
		Labels:  []string{"ui", "api"},
		Ignored: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, requester.Params{
		"q":      "bug fix",
		"labels": []string{"ui", "api"},
	}, params)

	cfg := requester.NewConfiguration("https://example.com")
	req, err := requester.Compile(requester.NewRoute(cfg, requester.GET, "search", requester.WithParams(params)))
	require.NoError(t, err)
	assert.Equal(t, "labels[0]=ui&labels[1]=api&q=bug%20fix", req.URL.RawQuery)
}

func TestStructParams_NotAStruct(t *testing.T) {
	_, err := requester.StructParams(map[string]string{"a": "b"})
	assert.True(t, requester.IsKind(err, requester.KindParamEncoding))
}
