package jsonpath

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const canonicalResponse = `{
  "queryResult": {
    "intent": {"displayName": "Generic|BIT|0|Welcome|Gen"},
    "action": "input.welcome",
    "allRequiredParamsPresent": true,
    "outputContexts": [
      {"name": "projects/x/agent/sessions/y/contexts/tracking_prompt", "lifespanCount": 1}
    ]
  }
}`

func mustDoc(t *testing.T, raw string) Node {
	t.Helper()
	n, err := ParseDocument([]byte(raw))
	require.NoError(t, err)
	return n
}

func TestSearchScalarFields(t *testing.T) {
	doc := mustDoc(t, canonicalResponse)

	n, err := Search(doc, "queryResult.action")
	require.NoError(t, err)
	s, ok := AsString(n)
	require.True(t, ok)
	require.Equal(t, "input.welcome", s)

	n, err = Search(doc, "queryResult.allRequiredParamsPresent")
	require.NoError(t, err)
	b, ok := AsBool(n)
	require.True(t, ok)
	require.True(t, b)
}

func TestSearchArrayIndex(t *testing.T) {
	doc := mustDoc(t, canonicalResponse)

	n, err := Search(doc, "queryResult.outputContexts[0].lifespanCount")
	require.NoError(t, err)
	f, ok := AsNumber(n)
	require.True(t, ok)
	require.Equal(t, float64(1), f)
}

func TestSearchMissingField(t *testing.T) {
	doc := mustDoc(t, canonicalResponse)
	_, err := Search(doc, "queryResult.missingField")
	require.Error(t, err)
}

func TestSearchIndexOutOfRange(t *testing.T) {
	doc := mustDoc(t, canonicalResponse)
	_, err := Search(doc, "queryResult.outputContexts[5]")
	require.Error(t, err)
}

func TestCompareJSONObjectMatch(t *testing.T) {
	doc := mustDoc(t, canonicalResponse)
	n, err := Search(doc, "queryResult.outputContexts[0]")
	require.NoError(t, err)

	ok, diff := CompareJSON(n, `{"name":"projects/x/agent/sessions/y/contexts/tracking_prompt","lifespanCount":1}`)
	require.True(t, ok)
	require.Empty(t, diff)
}

func TestCompareJSONObjectMismatch(t *testing.T) {
	doc := mustDoc(t, canonicalResponse)
	n, err := Search(doc, "queryResult.outputContexts[0]")
	require.NoError(t, err)

	ok, diff := CompareJSON(n, `{"lifespanCount":2,"name2":"whatever"}`)
	require.False(t, ok)
	require.Contains(t, diff, `json atoms at path ".lifespanCount" are not equal`)
	require.Contains(t, diff, `json atom at path ".name" is missing from rhs`)
	require.Contains(t, diff, `json atom at path ".name2" is missing from lhs`)
}

func TestCompareJSONArrayOrderSignificant(t *testing.T) {
	doc := mustDoc(t, `{"items":[1,2,3]}`)
	n, err := Search(doc, "items")
	require.NoError(t, err)

	ok, diff := CompareJSON(n, `[1,3,2]`)
	require.False(t, ok)
	require.True(t, strings.Contains(diff, "[1]") || strings.Contains(diff, "[2]"))
}
