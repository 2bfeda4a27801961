package marketo

import (
	"strings"
)

// successKey returns the envelope element wrapping a successful response,
// e.g. getLead -> successGetLead.
func successKey(op string) string {
	if op == "" {
		return "success"
	}
	return "success" + strings.ToUpper(op[:1]) + op[1:]
}

// unwrap strips the success envelope of op and returns its result.
func unwrap(op string, resp map[string]any) (map[string]any, error) {
	key := successKey(op)
	success, ok := asMap(resp[key])
	if !ok {
		return nil, malformed(op, "response has no %s element", key)
	}
	result, ok := asMap(success["result"])
	if !ok {
		return nil, malformed(op, "%s has no result", key)
	}
	return result, nil
}

// asMap returns v as a map. Empty elements decode as nil or blank text and
// blank text is treated as an empty map.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case nil:
		return nil, false
	case string:
		if strings.TrimSpace(m) == "" {
			return map[string]any{}, true
		}
	}
	return nil, false
}

// asList normalizes an element that may hold one bare value or a list of
// values into a list.
func asList(v any) []any {
	switch l := v.(type) {
	case nil:
		return nil
	case []any:
		return l
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out
	case string:
		if strings.TrimSpace(l) == "" {
			return nil
		}
	}
	return []any{v}
}

// stringOf returns the text of a leaf element.
func stringOf(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		str, _ := InferType(s)
		return str
	}
}
