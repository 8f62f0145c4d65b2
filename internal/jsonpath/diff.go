package jsonpath

import (
	"fmt"
	"sort"
	"strings"
)

// CompareJSON parses expectedText as JSON and deep-compares it against
// actual. Array element order is significant. On a mismatch it returns a
// multi-line diff naming every path at which atoms differ or a key is
// missing on either side, e.g. ".name2" or "[0].lifespanCount".
func CompareJSON(actual Node, expectedText string) (ok bool, diff string) {
	expected, err := ParseDocument([]byte(expectedText))
	if err != nil {
		return false, fmt.Sprintf("invalid expected JSON: %v", err)
	}
	var lines []string
	walkDiff("", expected, actual, &lines)
	if len(lines) == 0 {
		return true, ""
	}
	sort.Strings(lines)
	return false, strings.Join(lines, "\n")
}

func walkDiff(path string, expected, actual Node, lines *[]string) {
	if expected.kind != actual.kind {
		*lines = append(*lines, fmt.Sprintf("json atoms at path %q are not equal: expected %s, got %s",
			emptyDot(path), describe(expected), describe(actual)))
		return
	}

	switch expected.kind {
	case KindObject:
		eKeys := expected.objKeys
		aKeys := actual.objKeys
		aSet := make(map[string]bool, len(aKeys))
		for _, k := range aKeys {
			aSet[k] = true
		}
		eSet := make(map[string]bool, len(eKeys))
		for _, k := range eKeys {
			eSet[k] = true
		}
		// lhs is the actual response node, rhs is the parsed expected text:
		// a key present only in expected is absent from the actual tree
		// (missing from lhs); a key present only in actual is absent from
		// the expected tree (missing from rhs).
		for _, k := range eKeys {
			childPath := path + "." + k
			if !aSet[k] {
				*lines = append(*lines, fmt.Sprintf("json atom at path %q is missing from lhs", childPath))
				continue
			}
			walkDiff(childPath, expected.obj[k], actual.obj[k], lines)
		}
		for _, k := range aKeys {
			if !eSet[k] {
				*lines = append(*lines, fmt.Sprintf("json atom at path %q is missing from rhs", path+"."+k))
			}
		}
	case KindArray:
		for i := 0; i < len(expected.arr) || i < len(actual.arr); i++ {
			childPath := fmt.Sprintf("%s[%d]", path, i)
			if i >= len(actual.arr) {
				*lines = append(*lines, fmt.Sprintf("json atom at path %q is missing from lhs", childPath))
				continue
			}
			if i >= len(expected.arr) {
				*lines = append(*lines, fmt.Sprintf("json atom at path %q is missing from rhs", childPath))
				continue
			}
			walkDiff(childPath, expected.arr[i], actual.arr[i], lines)
		}
	case KindBool:
		if expected.b != actual.b {
			*lines = append(*lines, fmt.Sprintf("json atoms at path %q are not equal: expected %t, got %t", emptyDot(path), expected.b, actual.b))
		}
	case KindNumber:
		if expected.n != actual.n {
			*lines = append(*lines, fmt.Sprintf("json atoms at path %q are not equal: expected %s, got %s", emptyDot(path), trimFloat(expected.n), trimFloat(actual.n)))
		}
	case KindString:
		if expected.s != actual.s {
			*lines = append(*lines, fmt.Sprintf("json atoms at path %q are not equal: expected %q, got %q", emptyDot(path), expected.s, actual.s))
		}
	case KindNull:
		// both null: equal, nothing to report
	}
}

func describe(n Node) string {
	return fmt.Sprintf("%s (%s)", n.String(), KindOf(n))
}

func emptyDot(path string) string {
	if path == "" {
		return "."
	}
	return path
}
