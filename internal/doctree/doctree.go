// Package doctree holds the section tree produced by the attachment parsers.
package doctree

import "strings"

// DocTree is the root of a parsed attachment.
type DocTree struct {
	Title    string     // Attachment title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page (0 if N/A)
	Children []*DocNode // Subsections
}

// PlainText renders the tree as text, titling each section with a markdown
// heading of its depth. Sections without text or children are skipped.
func PlainText(tree *DocTree) string {
	if tree == nil {
		return ""
	}
	var parts []string
	var walk func(nodes []*DocNode, depth int)
	walk = func(nodes []*DocNode, depth int) {
		for _, n := range nodes {
			if n.Title != "" && (n.Text != "" || len(n.Children) > 0) {
				parts = append(parts, strings.Repeat("#", min(depth, 6))+" "+n.Title)
			}
			if t := strings.TrimSpace(n.Text); t != "" {
				parts = append(parts, t)
			}
			walk(n.Children, depth+1)
		}
	}
	walk(tree.Children, 1)
	return strings.Join(parts, "\n\n")
}

// EstimateTokens gives a rough token count (~1.33 tokens per word).
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// TruncateTokens cuts text down to roughly maxTokens, breaking on a word
// boundary. It reports whether anything was removed.
func TruncateTokens(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 {
		return "", text != ""
	}
	if EstimateTokens(text) <= maxTokens {
		return text, false
	}
	maxWords := int(float64(maxTokens)/1.33 + 1e-9)
	fields := strings.Fields(text)
	if maxWords > len(fields) {
		maxWords = len(fields)
	}
	return strings.Join(fields[:maxWords], " "), true
}
