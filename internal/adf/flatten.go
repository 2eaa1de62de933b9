package adf

import (
	"encoding/json"
	"strconv"
	"strings"
)

// BulletMarker prefixes every bulletList item line.
const BulletMarker = "•"

// BlockKind is the closed set of top-level block renderings.
type BlockKind int

const (
	KindOther BlockKind = iota
	KindParagraph
	KindHeading
	KindBulletList
	KindOrderedList
)

// KindOf maps an ADF node type to its block rendering.
func KindOf(nodeType string) BlockKind {
	switch nodeType {
	case "paragraph":
		return KindParagraph
	case "heading":
		return KindHeading
	case "bulletList":
		return KindBulletList
	case "orderedList":
		return KindOrderedList
	default:
		return KindOther
	}
}

// ExtractText concatenates all inline text below nodes, ignoring block
// structure. Sibling contributions are joined without a separator.
func ExtractText(nodes []Node) string {
	var sb strings.Builder
	writeText(&sb, nodes)
	return sb.String()
}

func writeText(sb *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		if n.Text != "" {
			sb.WriteString(n.Text)
			continue
		}
		writeText(sb, n.Content)
	}
}

// ExtractTextJSON is ExtractText over raw JSON. Anything other than an array
// yields "".
func ExtractTextJSON(data []byte) string {
	return ExtractText(decodeNodes(data))
}

// Flatten renders top-level blocks as newline-joined lines.
func Flatten(blocks []Node) string {
	return strings.Join(Lines(blocks), "\n")
}

// Lines renders top-level blocks, one entry per output line.
func Lines(blocks []Node) []string {
	var lines []string
	for _, block := range blocks {
		switch KindOf(block.Type) {
		case KindParagraph:
			lines = append(lines, ExtractText(block.Content))

		case KindHeading:
			prefix := strings.Repeat("#", block.HeadingLevel())
			lines = append(lines, prefix+" "+ExtractText(block.Content))

		case KindBulletList:
			for _, item := range block.Content {
				lines = append(lines, BulletMarker+" "+ExtractText(item.Content))
			}

		case KindOrderedList:
			for i, item := range block.Content {
				lines = append(lines, strconv.Itoa(i+1)+". "+ExtractText(item.Content))
			}

		default:
			if text := ExtractText(block.Content); text != "" {
				lines = append(lines, text)
			}
		}
	}
	return lines
}

// FlattenJSON decodes a JSON array of blocks and flattens it. Anything other
// than an array (null, an object, a scalar, invalid JSON) yields "".
func FlattenJSON(data []byte) string {
	return Flatten(decodeNodes(data))
}

// FlattenDocument flattens the content of an ADF document object such as a
// Jira issue description. A null or non-object document yields "".
func FlattenDocument(doc json.RawMessage) string {
	if !isObject(doc) {
		return ""
	}
	var raw struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(doc, &raw); err != nil {
		return ""
	}
	return FlattenJSON(raw.Content)
}
