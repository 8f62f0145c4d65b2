package jsonpath

import (
	"strconv"
	"strings"

	"github.com/jabber-tools/nlptestrunner/internal/nlperr"
)

// segment is one hop of a compiled path expression: either a named object
// field or a numeric array index.
type segment struct {
	field    string
	index    int
	isIndex  bool
}

// compile parses a JMESPath-like dotted/bracketed expression such as
// "queryResult.outputContexts[0].lifespanCount" into an ordered list of
// segments. A leading "." or "$." is tolerated but not required.
func compile(expr string) ([]segment, error) {
	trimmed := strings.TrimPrefix(expr, "$")
	trimmed = strings.TrimPrefix(trimmed, ".")
	if trimmed == "" {
		return nil, nil
	}

	var segs []segment
	for _, dotPart := range strings.Split(trimmed, ".") {
		part := dotPart
		for part != "" {
			br := strings.IndexByte(part, '[')
			if br == -1 {
				if part != "" {
					segs = append(segs, segment{field: part})
				}
				part = ""
				continue
			}
			if br > 0 {
				segs = append(segs, segment{field: part[:br]})
			}
			close := strings.IndexByte(part[br:], ']')
			if close == -1 {
				return nil, nlperr.Newf(nlperr.KindGeneric, "unterminated '[' in expression: %s", expr)
			}
			idxStr := part[br+1 : br+close]
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, nlperr.Newf(nlperr.KindGeneric, "non-numeric index %q in expression: %s", idxStr, expr)
			}
			segs = append(segs, segment{index: idx, isIndex: true})
			part = part[br+close+1:]
		}
	}
	return segs, nil
}

// Search compiles expr and walks document, returning the addressed Node. A
// failure to parse expr, or a path that runs off the document's shape,
// yields a typed evaluation error.
func Search(document Node, expr string) (Node, error) {
	segs, err := compile(expr)
	if err != nil {
		return Node{}, err
	}
	current := document
	for _, seg := range segs {
		if seg.isIndex {
			arr, ok := AsArray(current)
			if !ok {
				return Node{}, nlperr.Newf(nlperr.KindGeneric, "expected array at index [%d] in expression: %s", seg.index, expr)
			}
			if seg.index < 0 || seg.index >= len(arr) {
				return Node{}, nlperr.Newf(nlperr.KindGeneric, "index [%d] out of range in expression: %s", seg.index, expr)
			}
			current = arr[seg.index]
			continue
		}
		obj, _, ok := AsObject(current)
		if !ok {
			return Node{}, nlperr.Newf(nlperr.KindGeneric, "expected object at field %q in expression: %s", seg.field, expr)
		}
		val, exists := obj[seg.field]
		if !exists {
			return Node{}, nlperr.Newf(nlperr.KindGeneric, "field %q not found in expression: %s", seg.field, expr)
		}
		current = val
	}
	return current, nil
}
