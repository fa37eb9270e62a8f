package tool

import (
	"errors"
	"testing"

	"github.com/brizzai/requestkit/requester"
	"github.com/stretchr/testify/assert"
)

func TestErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "plain error",
			err:  errors.New(`missing path parameter "id"`),
			want: `missing path parameter "id"`,
		},
		{
			name: "status with text body",
			err: &requester.Error{
				Kind:       requester.KindHTTPStatus,
				StatusCode: 401,
				UserInfo:   map[string]any{requester.ErrorKey: "Bad credentials"},
			},
			want: "HTTP Error 401: Bad credentials",
		},
		{
			name: "status with json body",
			err: &requester.Error{
				Kind:       requester.KindHTTPStatus,
				StatusCode: 422,
				UserInfo:   map[string]any{requester.ErrorKey: map[string]any{"message": "invalid"}},
			},
			want: "HTTP Error 422: {\n  \"message\": \"invalid\"\n}",
		},
		{
			name: "status without body",
			err:  &requester.Error{Kind: requester.KindHTTPStatus, StatusCode: 500},
			want: "HTTP Error 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorText(tt.err))
		})
	}
}

func TestErrorText_OtherKinds(t *testing.T) {
	err := &requester.Error{Kind: requester.KindTransport, Domain: requester.DefaultErrorDomain, Err: errors.New("connection refused")}
	assert.Equal(t, err.Error(), ErrorText(err))
}

func TestResultText(t *testing.T) {
	assert.Equal(t, "OK", resultText(nil))
	assert.Equal(t, "plain", resultText("plain"))
	assert.Equal(t, "[\n  1,\n  2\n]", resultText([]any{1, 2}))
}
