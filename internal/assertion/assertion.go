// Package assertion implements the response-check evaluator: applying one
// (expression, operator, value) triple to a turn's response JSON and
// producing either success or a structured nlperr.Error whose message
// matches the templates suite authors and downstream tooling depend on.
package assertion

import (
	"fmt"
	"math"
	"strings"

	"github.com/jabber-tools/nlptestrunner/internal/jsonpath"
	"github.com/jabber-tools/nlptestrunner/internal/model"
	"github.com/jabber-tools/nlptestrunner/internal/nlperr"
)

// Evaluate applies check against responseJSON and returns nil on success or
// an *nlperr.Error (kind KindInvalidResponseCheck, carrying responseJSON as
// the raw response) describing exactly what failed. Operator/value-type
// combinations outside the matrix in the design (e.g. Length on a string)
// are rejected before the document is ever searched — an invalid shape is a
// property of the check itself, independent of what the backend returned.
func Evaluate(check model.ResponseCheck, responseJSON string) error {
	if shapeErr := validateShape(check, responseJSON); shapeErr != nil {
		return shapeErr
	}

	doc, err := jsonpath.ParseDocument([]byte(responseJSON))
	if err != nil {
		return failf(responseJSON, "invalid response JSON for expression: %s", check.Expression)
	}

	node, searchErr := jsonpath.Search(doc, check.Expression)
	if searchErr != nil {
		// Absent node vs. operator-disallowed are distinguished above by
		// shape; once the shape is valid, a search failure always means
		// "absent", reported as absent-of-the-check's-value-type.
		return absent(responseJSON, check)
	}

	switch check.Value.Kind {
	case model.ValueBool:
		return evalBool(node, check, responseJSON)
	case model.ValueString:
		return evalString(node, check, responseJSON)
	case model.ValueNumber:
		return evalNumber(node, check, responseJSON)
	default:
		return failf(responseJSON, "Operator %s not allowed for unknown value of expression: %s", check.Operator, check.Expression)
	}
}

// validateShape rejects every (operator, value-type) combination outside
// the matrix: Bool accepts only Equals/NotEquals; String accepts
// Equals/NotEquals/Includes/JsonEquals; Number accepts
// Equals/NotEquals/Length.
func validateShape(check model.ResponseCheck, raw string) error {
	var allowed map[model.CheckOperator]bool
	var kindName string
	switch check.Value.Kind {
	case model.ValueBool:
		kindName = "bool"
		allowed = map[model.CheckOperator]bool{model.OpEquals: true, model.OpNotEquals: true}
	case model.ValueString:
		kindName = "string"
		allowed = map[model.CheckOperator]bool{
			model.OpEquals: true, model.OpNotEquals: true, model.OpIncludes: true, model.OpJSONEquals: true,
		}
	case model.ValueNumber:
		kindName = "number"
		allowed = map[model.CheckOperator]bool{model.OpEquals: true, model.OpNotEquals: true, model.OpLength: true}
	default:
		return failf(raw, "Operator %s not allowed for unknown value of expression: %s", check.Operator, check.Expression)
	}

	if allowed[check.Operator] {
		return nil
	}
	if kindName == "string" && check.Operator == model.OpLength {
		return failf(raw, "Operator length not allowed for string value of expression: %s. If value is '4' use 4 instead.", check.Expression)
	}
	return failf(raw, "Operator %s not allowed for %s value of expression: %s", check.Operator, kindName, check.Expression)
}

func failf(raw, format string, args ...any) error {
	return nlperr.Newf(nlperr.KindInvalidResponseCheck, format, args...).WithRaw(raw)
}

func absent(raw string, check model.ResponseCheck) error {
	// Length always addresses an array regardless of the check's Number
	// value kind, and the original carries no parenthetical value for it.
	if check.Operator == model.OpLength {
		return failf(raw, "Unable to retrieve array value for expression: %s", check.Expression)
	}

	var kindName string
	switch check.Value.Kind {
	case model.ValueBool:
		kindName = "boolean"
	case model.ValueString:
		kindName = "string"
	case model.ValueNumber:
		kindName = "numerical"
	default:
		kindName = "string"
	}
	valueText := checkValueText(check.Value)
	return failf(raw, "Unable to retrieve %s value (%s) for expression: %s", kindName, valueText, check.Expression)
}

func checkValueText(v model.CheckValue) string {
	switch v.Kind {
	case model.ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	case model.ValueNumber:
		return trimFloat(v.Number)
	default:
		return v.String
	}
}

func trimFloat(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

func evalBool(node jsonpath.Node, check model.ResponseCheck, raw string) error {
	actual, ok := jsonpath.AsBool(node)
	if !ok {
		return absent(raw, check)
	}
	expected := check.Value.Bool

	switch check.Operator {
	case model.OpEquals:
		if actual == expected {
			return nil
		}
		return failf(raw, "Expected value (%t) does not match real value: (%t) for expression: %s", expected, actual, check.Expression)
	case model.OpNotEquals:
		if actual != expected {
			return nil
		}
		return failf(raw, "Expected value (%t), got instead value: (%t) for expression: %s", expected, actual, check.Expression)
	}
	return nil
}

func evalString(node jsonpath.Node, check model.ResponseCheck, raw string) error {
	expected := check.Value.String

	switch check.Operator {
	case model.OpEquals:
		actual, ok := jsonpath.AsString(node)
		if !ok {
			return absent(raw, check)
		}
		if actual == expected {
			return nil
		}
		return failf(raw, "Expected value '%s' does not match real value: '%s' for expression: %s", expected, actual, check.Expression)
	case model.OpNotEquals:
		actual, ok := jsonpath.AsString(node)
		if !ok {
			return absent(raw, check)
		}
		if actual != expected {
			return nil
		}
		return failf(raw, "Expected value '%s', got instead value: '%s' for expression: %s", expected, actual, check.Expression)
	case model.OpIncludes:
		actual, ok := jsonpath.AsString(node)
		if !ok {
			return absent(raw, check)
		}
		if strings.Contains(actual, expected) {
			return nil
		}
		return failf(raw, "Expected value '%s' not included in real value: '%s' for expression: %s", expected, actual, check.Expression)
	case model.OpJSONEquals:
		return evalJSONEquals(node, check, raw)
	case model.OpLength:
		return failf(raw, "Operator length not allowed for string value of expression: %s. If value is '4' use 4 instead.", check.Expression)
	default:
		return failf(raw, "Operator %s not allowed for string value of expression: %s", check.Operator, check.Expression)
	}
}

// evalJSONEquals handles JsonEquals on a string check value: the addressed
// node must be an Array or an Object; anything else fails.
func evalJSONEquals(node jsonpath.Node, check model.ResponseCheck, raw string) error {
	switch jsonpath.KindOf(node) {
	case jsonpath.KindArray:
		ok, diff := jsonpath.CompareJSON(node, check.Value.String)
		if ok {
			return nil
		}
		return failf(raw, "Arrays not matching for expression '%s'. Error: %s", check.Expression, diff)
	case jsonpath.KindObject:
		ok, diff := jsonpath.CompareJSON(node, check.Value.String)
		if ok {
			return nil
		}
		return failf(raw, "Objects not matching for expression '%s'. Error: %s", check.Expression, diff)
	default:
		return failf(raw, "Operator jsonequals not allowed for scalar value of expression: %s", check.Expression)
	}
}

func evalNumber(node jsonpath.Node, check model.ResponseCheck, raw string) error {
	switch check.Operator {
	case model.OpEquals:
		actual, ok := jsonpath.AsNumber(node)
		if !ok {
			return absent(raw, check)
		}
		if actual == check.Value.Number {
			return nil
		}
		return failf(raw, "Expected value (%s) does not match real value: (%s) for expression: %s", trimFloat(check.Value.Number), trimFloat(actual), check.Expression)
	case model.OpNotEquals:
		actual, ok := jsonpath.AsNumber(node)
		if !ok {
			return absent(raw, check)
		}
		if actual != check.Value.Number {
			return nil
		}
		return failf(raw, "Expected value (%s), got instead value: (%s) for expression: %s", trimFloat(check.Value.Number), trimFloat(actual), check.Expression)
	case model.OpLength:
		return evalLength(node, check, raw)
	default:
		return failf(raw, "Operator %s not allowed for number value of expression: %s", check.Operator, check.Expression)
	}
}

// evalLength requires the addressed node to be an array; the expected
// numeric value is cast to an unsigned integer (rounded toward zero, per
// the legacy numeric-representation design note) and compared against the
// array's length.
func evalLength(node jsonpath.Node, check model.ResponseCheck, raw string) error {
	arr, ok := jsonpath.AsArray(node)
	if !ok {
		return failf(raw, "Operator length allowed for array expressions only. Expression: %s", check.Expression)
	}
	expected := 0
	if check.Value.Number > 0 {
		expected = int(check.Value.Number)
	}
	if expected == len(arr) {
		return nil
	}
	return failf(raw, "Expected array length %d, got %d for expression: %s", expected, len(arr), check.Expression)
}
