// Package jsonpath evaluates JSONPath expressions against captured
// interaction payloads. The admin API uses it to filter entries by
// the shape of their query echo or body.
package jsonpath

import (
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// Query is a compiled JSONPath expression.
type Query struct {
	src  string
	expr jp.Expr
}

// Compile parses a JSONPath expression.
func Compile(path string) (*Query, error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath expression %q: %w", path, err)
	}
	return &Query{src: path, expr: expr}, nil
}

// Validate checks a JSONPath expression without keeping the compiled
// form. Callers use it to reject bad expressions at request time.
func Validate(path string) error {
	_, err := Compile(path)
	return err
}

// String returns the source expression.
func (q *Query) String() string {
	return q.src
}

// Matches reports whether the expression selects at least one value in
// the document. A document that is not valid JSON never matches; a
// selected null value counts as present.
func (q *Query) Matches(doc []byte) bool {
	if len(doc) == 0 {
		return false
	}

	var data any
	if err := json.Unmarshal(doc, &data); err != nil {
		return false
	}

	return len(q.expr.Get(data)) > 0
}

// MatchesAny reports whether the expression matches any of the given
// documents. Empty documents are skipped.
func (q *Query) MatchesAny(docs ...[]byte) bool {
	for _, doc := range docs {
		if q.Matches(doc) {
			return true
		}
	}
	return false
}
