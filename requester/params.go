package requester

import (
	"net/url"
	"slices"

	"github.com/gorilla/schema"
)

var paramEncoder = schema.NewEncoder()

// StructParams encodes a struct (or pointer to one) into Params using its
// `schema` tags. Fields with a single value become strings, repeated values
// become []string.
func StructParams(v any) (Params, error) {
	values := url.Values{}
	if err := paramEncoder.Encode(v, values); err != nil {
		return nil, newError(KindParamEncoding, DefaultErrorDomain, err)
	}

	params := make(Params, len(values))
	for key, vals := range values {
		if len(vals) == 1 {
			params[key] = vals[0]
			continue
		}
		params[key] = slices.Clone(vals)
	}
	return params, nil
}
