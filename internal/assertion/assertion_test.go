package assertion

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jabber-tools/nlptestrunner/internal/model"
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

func check(expr string, op model.CheckOperator, val model.CheckValue) model.ResponseCheck {
	return model.ResponseCheck{Expression: expr, Operator: op, Value: val}
}

func TestEqualsStringPass(t *testing.T) {
	err := Evaluate(check("queryResult.action", model.OpEquals, model.StringValue("input.welcome")), canonicalResponse)
	require.NoError(t, err)
}

func TestEqualsStringFail(t *testing.T) {
	err := Evaluate(check("queryResult.action", model.OpEquals, model.StringValue("foo.bar")), canonicalResponse)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Expected value 'foo.bar' does not match real value: 'input.welcome' for expression: queryResult.action")
}

func TestIncludesStringPass(t *testing.T) {
	err := Evaluate(check("queryResult.action", model.OpIncludes, model.StringValue("nput.welcom")), canonicalResponse)
	require.NoError(t, err)
}

func TestEqualsBoolPassAndFail(t *testing.T) {
	require.NoError(t, Evaluate(check("queryResult.allRequiredParamsPresent", model.OpEquals, model.BoolValue(true)), canonicalResponse))

	err := Evaluate(check("queryResult.allRequiredParamsPresent", model.OpEquals, model.BoolValue(false)), canonicalResponse)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Expected value (false) does not match real value: (true)")
}

func TestLengthPassAndFail(t *testing.T) {
	require.NoError(t, Evaluate(check("queryResult.outputContexts", model.OpLength, model.NumberValue(1)), canonicalResponse))

	err := Evaluate(check("queryResult.outputContexts", model.OpLength, model.NumberValue(2)), canonicalResponse)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Expected array length 2, got 1 for expression: queryResult.outputContexts")
}

func TestLengthOnObjectRejected(t *testing.T) {
	err := Evaluate(check("queryResult.outputContexts[0]", model.OpLength, model.NumberValue(1)), canonicalResponse)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Operator length allowed for array expressions only. Expression: queryResult.outputContexts[0]")
}

func TestJSONEqualsObjectPass(t *testing.T) {
	err := Evaluate(check("queryResult.outputContexts[0]", model.OpJSONEquals,
		model.StringValue(`{"name":"projects/x/agent/sessions/y/contexts/tracking_prompt","lifespanCount":1}`)), canonicalResponse)
	require.NoError(t, err)
}

func TestJSONEqualsObjectFail(t *testing.T) {
	err := Evaluate(check("queryResult.outputContexts[0]", model.OpJSONEquals,
		model.StringValue(`{"lifespanCount":2,"name2":"whatever"}`)), canonicalResponse)
	require.Error(t, err)
	msg := err.Error()
	require.Contains(t, msg, "Objects not matching for expression 'queryResult.outputContexts[0]'")
	require.Contains(t, msg, `json atoms at path ".lifespanCount" are not equal`)
	require.Contains(t, msg, `json atom at path ".name" is missing from rhs`)
	require.Contains(t, msg, `json atom at path ".name2" is missing from lhs`)
}

func TestInvalidShapeRejectedBeforeSearch(t *testing.T) {
	// Length is not allowed for string values; must fail on shape alone,
	// even against an expression that does not exist in the document.
	err := Evaluate(check("does.not.exist", model.OpLength, model.StringValue("4")), canonicalResponse)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Operator length not allowed for string value of expression: does.not.exist")
	require.Contains(t, err.Error(), "If value is '4' use 4 instead.")
}

func TestAbsentFieldReported(t *testing.T) {
	err := Evaluate(check("queryResult.missing", model.OpEquals, model.StringValue("x")), canonicalResponse)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unable to retrieve string value (x) for expression: queryResult.missing")
}

func TestLengthOnAbsentPathReportsArray(t *testing.T) {
	err := Evaluate(check("queryResult.outputContexts.does.not.exist", model.OpLength, model.NumberValue(2)), canonicalResponse)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unable to retrieve array value for expression: queryResult.outputContexts.does.not.exist")
	require.NotContains(t, err.Error(), "(2)")
}
