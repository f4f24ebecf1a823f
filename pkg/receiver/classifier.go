// Package receiver implements the capture listener: every inbound HTTP
// request is classified, recorded, and answered, and root-path queries
// carrying a relay alias pair are forwarded to their target.
package receiver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/leelsey/recvd/pkg/capture"
)

// Decision is the outcome of classifying one inbound request.
type Decision struct {
	// Kind is the route classification, one of the capture.Kind values.
	Kind string

	// Label is the capture label: empty for the root path, the path with
	// its leading slashes stripped for everything else.
	Label string

	// Query is the parsed root query mapping. Nil for non-root routes and
	// for root requests whose query carried no usable pairs.
	Query *QueryMapping
}

// Classifier routes inbound requests by method and path. The view and
// favicon routes only exist for GET; any other method on those paths
// falls through to the named-route contract.
type Classifier struct {
	viewPath string
}

// NewClassifier creates a Classifier serving the log view at viewPath.
func NewClassifier(viewPath string) *Classifier {
	if viewPath == "" {
		viewPath = "/logs"
	}
	return &Classifier{viewPath: viewPath}
}

// ViewPath returns the configured log view path.
func (c *Classifier) ViewPath() string {
	return c.viewPath
}

// Classify maps a request to its route decision.
func (c *Classifier) Classify(method, path, rawQuery string) Decision {
	if method == http.MethodGet {
		switch path {
		case "/favicon.ico":
			return Decision{Kind: capture.KindFavicon, Label: "favicon.ico"}
		case c.viewPath:
			return Decision{Kind: capture.KindView, Label: strings.TrimLeft(c.viewPath, "/")}
		}
	}

	if path == "/" {
		return Decision{Kind: capture.KindRoot, Query: parseQueryMapping(rawQuery)}
	}

	return Decision{Kind: capture.KindNamed, Label: strings.TrimLeft(path, "/")}
}

// QueryMapping holds parsed root query parameters with first-appearance
// key order preserved. A key seen once maps to its string value; a
// repeated key maps to the ordered list of its values.
type QueryMapping struct {
	keys   []string
	values map[string]any
}

// parseQueryMapping parses a raw query string. Pairs without a value and
// pairs with broken escapes are skipped; when nothing usable remains the
// result is nil, so callers can tell "no parameters" from "parameters
// present".
func parseQueryMapping(rawQuery string) *QueryMapping {
	if rawQuery == "" {
		return nil
	}

	m := &QueryMapping{values: make(map[string]any)}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found || value == "" {
			continue
		}
		k, err := url.QueryUnescape(key)
		if err != nil {
			continue
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		m.add(k, v)
	}

	if len(m.keys) == 0 {
		return nil
	}
	return m
}

func (m *QueryMapping) add(key, value string) {
	existing, ok := m.values[key]
	if !ok {
		m.keys = append(m.keys, key)
		m.values[key] = value
		return
	}
	switch prev := existing.(type) {
	case string:
		m.values[key] = []string{prev, value}
	case []string:
		m.values[key] = append(prev, value)
	}
}

// Len returns the number of distinct keys.
func (m *QueryMapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value for a key: a string, or a []string when the key
// repeated.
func (m *QueryMapping) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in first-appearance order.
func (m *QueryMapping) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// MarshalJSON serializes the mapping compactly with keys in
// first-appearance order.
func (m *QueryMapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders the mapping as compact JSON, or "" when the mapping is
// nil or empty.
func (m *QueryMapping) String() string {
	if m == nil || len(m.keys) == 0 {
		return ""
	}
	data, err := m.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(data)
}
