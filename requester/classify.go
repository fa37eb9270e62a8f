package requester

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// WasSuccessful reports whether statusCode is in [200, 300)
func WasSuccessful(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// classify inspects a raw exchange. It returns nil when the response may be
// decoded and the failure otherwise.
func classify(domain string, resp *Response, err error) *Error {
	if resp == nil || resp.StatusCode == 0 {
		if err == nil {
			err = errors.New("session returned no response")
		}
		return newError(KindTransport, domain, err)
	}

	if !WasSuccessful(resp.StatusCode) {
		failure := &Error{
			Kind:       KindHTTPStatus,
			Domain:     domain,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status code %d", resp.StatusCode),
		}
		if body, ok := parseErrorBody(resp.Body); ok {
			failure.UserInfo = map[string]any{ErrorKey: body}
		}
		return failure
	}

	// a success status with a broken transfer is still a transport failure
	if err != nil {
		failure := newError(KindTransport, domain, err)
		failure.StatusCode = resp.StatusCode
		return failure
	}
	return nil
}

// parseErrorBody returns the JSON value of body, or the body as text
func parseErrorBody(body []byte) (any, bool) {
	if len(body) == 0 {
		return nil, false
	}
	var parsed any
	if err := json.Unmarshal(body, &parsed); err == nil {
		return parsed, true
	}
	if utf8.Valid(body) {
		return string(body), true
	}
	return nil, false
}

// decodeBody runs strictly after classify accepted the response
func decodeBody[T any](domain string, resp *Response, dec Decoder) (T, error) {
	var value T
	if err := dec.Decode(resp.Body, &value); err != nil {
		var zero T
		failure := newError(KindDecode, domain, err)
		failure.StatusCode = resp.StatusCode
		return zero, failure
	}
	return value, nil
}
