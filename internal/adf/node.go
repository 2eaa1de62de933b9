// Package adf flattens Atlassian Document Format trees (Jira rich text) into
// line-oriented plain text suitable for prompting a language model.
//
// Documents come from an external API, so decoding and rendering are
// permissive: malformed or unexpected shapes degrade to empty output and
// never produce an error.
package adf

import (
	"bytes"
	"encoding/json"
)

// Node is a single node of an ADF tree.
type Node struct {
	Type    string
	Text    string
	Attrs   *Attrs
	Content []Node
}

// Attrs holds the node attributes the flattener reads.
type Attrs struct {
	Level *int // heading level, nil when absent or not a positive number
}

// MaxHeadingLevel is the deepest ADF heading; larger levels are clamped to it.
const MaxHeadingLevel = 6

// HeadingLevel returns the heading level, defaulting to 1.
func (n Node) HeadingLevel() int {
	if n.Attrs == nil || n.Attrs.Level == nil || *n.Attrs.Level < 1 {
		return 1
	}
	return min(*n.Attrs.Level, MaxHeadingLevel)
}

// UnmarshalJSON decodes a node without ever failing. Fields with the wrong
// JSON type are treated as absent; a value that is not an object decodes to
// the zero Node.
func (n *Node) UnmarshalJSON(data []byte) error {
	*n = Node{}

	var raw struct {
		Type    json.RawMessage `json:"type"`
		Text    json.RawMessage `json:"text"`
		Attrs   json.RawMessage `json:"attrs"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	_ = json.Unmarshal(raw.Type, &n.Type)
	_ = json.Unmarshal(raw.Text, &n.Text)
	n.Attrs = decodeAttrs(raw.Attrs)
	n.Content = decodeNodes(raw.Content)
	return nil
}

func decodeAttrs(data json.RawMessage) *Attrs {
	if !isObject(data) {
		return nil
	}
	var raw struct {
		Level json.RawMessage `json:"level"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	attrs := &Attrs{}
	var level float64
	if err := json.Unmarshal(raw.Level, &level); err == nil && level >= 1 {
		l := MaxHeadingLevel
		if level < MaxHeadingLevel {
			l = int(level)
		}
		attrs.Level = &l
	}
	return attrs
}

// decodeNodes returns nil unless data is a JSON array.
func decodeNodes(data []byte) []Node {
	if !isArray(data) {
		return nil
	}
	var nodes []Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil
	}
	return nodes
}

func isArray(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '['
}

func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}
