// Package export renders generated test cases (a JSON array of objects) as
// CSV, an HTML table, or a Word document, and previews issue stories as HTML.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrInvalidJSON = errors.New("Failed to parse test cases JSON.")
	ErrNoTestCases = errors.New("No test cases found to export.")
)

// TestCase maps a column name to its cell text.
type TestCase map[string]string

// ParseTestCases decodes a JSON array of objects. Columns are the keys of the
// first object in document order.
func ParseTestCases(text string) ([]TestCase, []string, error) {
	var items []json.RawMessage
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&items); err != nil {
		var anything any
		if json.Unmarshal([]byte(text), &anything) == nil {
			// Valid JSON that is not an array.
			return nil, nil, ErrNoTestCases
		}
		return nil, nil, ErrInvalidJSON
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, ErrInvalidJSON
	}
	if len(items) == 0 {
		return nil, nil, ErrNoTestCases
	}

	cols, err := objectKeys(items[0])
	if err != nil {
		return nil, nil, ErrNoTestCases
	}
	if len(cols) == 0 {
		return nil, nil, ErrNoTestCases
	}

	rows := make([]TestCase, 0, len(items))
	for _, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			// Non-object rows keep their place with empty cells.
			fields = nil
		}
		row := make(TestCase, len(cols))
		for _, c := range cols {
			row[c] = cellText(fields[c])
		}
		rows = append(rows, row)
	}
	return rows, cols, nil
}

// objectKeys returns the keys of a JSON object in the order they appear.
func objectKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	seen := map[string]bool{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected key, got %v", tok)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// cellText renders one JSON value as cell text: strings verbatim, null or
// missing as "", anything else as compact JSON.
func cellText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
