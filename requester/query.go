package requester

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/brizzai/requestkit/internal/logger"
	"go.uber.org/zap"
)

// QueryItem is one name=value component of an encoded query. Value is already
// percent-encoded; Name is emitted as is.
type QueryItem struct {
	Name  string
	Value string
}

func (q QueryItem) String() string {
	return q.Name + "=" + q.Value
}

// URLQuery encodes params into query components, sorted by key and then by
// nested key. It returns nil for an empty params map.
//
//	string             -> key=value
//	[]string           -> key[0]=a&key[1]=b
//	map[string]string  -> key[nested]=value
//
// Values of any other type are skipped and logged.
func URLQuery(params Params) []QueryItem {
	if len(params) == 0 {
		return nil
	}

	items := make([]QueryItem, 0, len(params))
	for _, key := range slices.Sorted(maps.Keys(params)) {
		switch value := params[key].(type) {
		case nil:
			continue
		case string:
			items = append(items, QueryItem{Name: key, Value: PercentEncode(value)})
		case []string:
			items = appendList(items, key, value)
		case []any:
			list, ok := stringList(value)
			if !ok {
				logger.Warn("cannot encode query parameter", zap.String("key", key), zap.String("type", "[]any with non-string items"))
				continue
			}
			items = appendList(items, key, list)
		case map[string]string:
			for _, nested := range slices.Sorted(maps.Keys(value)) {
				items = append(items, QueryItem{Name: key + "[" + nested + "]", Value: PercentEncode(value[nested])})
			}
		case map[string]any:
			for _, nested := range slices.Sorted(maps.Keys(value)) {
				s, ok := value[nested].(string)
				if !ok {
					continue
				}
				items = append(items, QueryItem{Name: key + "[" + nested + "]", Value: PercentEncode(s)})
			}
		default:
			logger.Warn("cannot encode query parameter", zap.String("key", key), zap.String("type", fmt.Sprintf("%T", value)))
		}
	}
	return items
}

func appendList(items []QueryItem, key string, list []string) []QueryItem {
	for i, item := range list {
		items = append(items, QueryItem{Name: fmt.Sprintf("%s[%d]", key, i), Value: PercentEncode(item)})
	}
	return items
}

func stringList(values []any) ([]string, bool) {
	list := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		list = append(list, s)
	}
	return list, true
}

// EncodeQuery joins query components with "&". An empty list yields "".
func EncodeQuery(items []QueryItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return strings.Join(parts, "&")
}

const upperhex = "0123456789ABCDEF"

// PercentEncode escapes s for use as a query value. Everything except
// unreserved characters, "/" and "?" is escaped, including the RFC 3986
// delimiters :#[]@!$&'()*+,;= .
func PercentEncode(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func shouldEscape(c byte) bool {
	if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' {
		return false
	}
	switch c {
	case '-', '.', '_', '~', '/', '?':
		return false
	}
	return true
}
