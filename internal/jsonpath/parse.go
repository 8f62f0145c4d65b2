package jsonpath

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/jabber-tools/nlptestrunner/internal/nlperr"
)

// trimFloat renders a float64 without a trailing ".0" for whole numbers,
// matching how a suite author would write the same value in YAML.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ParseDocument decodes raw JSON bytes into a Node tree. encoding/json does
// not preserve object key order when decoding into map[string]any, so object
// keys are sorted lexically instead — compare_json's diff output stays
// deterministic even though it no longer mirrors source order.
func ParseDocument(raw []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Node{}, nlperr.Wrap(nlperr.KindJSONParsing, "failed to parse JSON document", err)
	}
	return fromAny(v), nil
}

func fromAny(v any) Node {
	switch t := v.(type) {
	case nil:
		return nullNode()
	case bool:
		return boolNode(t)
	case json.Number:
		f, _ := t.Float64()
		return numberNode(f)
	case float64:
		return numberNode(t)
	case string:
		return stringNode(t)
	case []any:
		arr := make([]Node, len(t))
		for i, e := range t {
			arr[i] = fromAny(e)
		}
		return arrayNode(arr)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sortStrings(keys)
		m := make(map[string]Node, len(t))
		for _, k := range keys {
			m[k] = fromAny(t[k])
		}
		return objectNode(keys, m)
	default:
		return nullNode()
	}
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
