package export

import (
	"bytes"
	"errors"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	htmlParseFailed = "<p>Failed to parse test cases JSON.</p>"
	htmlNoTestCases = "<p>No test cases to display.</p>"
)

// RenderHTMLTable renders test-case JSON as a bordered table. Bad input
// renders a short paragraph instead of failing.
func RenderHTMLTable(text string) string {
	rows, cols, err := ParseTestCases(text)
	switch {
	case errors.Is(err, ErrInvalidJSON):
		return htmlParseFailed
	case err != nil:
		return htmlNoTestCases
	}

	table := element(atom.Table,
		html.Attribute{Key: "border", Val: "1"},
		html.Attribute{Key: "style", Val: "border-collapse: collapse; width: 100%"},
	)
	thead := element(atom.Thead)
	headRow := element(atom.Tr)
	for _, c := range cols {
		headRow.AppendChild(cell(atom.Th, c))
	}
	thead.AppendChild(headRow)
	table.AppendChild(thead)

	tbody := element(atom.Tbody)
	for _, row := range rows {
		tr := element(atom.Tr)
		for _, c := range cols {
			tr.AppendChild(cell(atom.Td, row[c]))
		}
		tbody.AppendChild(tr)
	}
	table.AppendChild(tbody)

	var buf bytes.Buffer
	if err := html.Render(&buf, table); err != nil {
		return htmlParseFailed
	}
	return buf.String()
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func cell(a atom.Atom, text string) *html.Node {
	n := element(a)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

var orderedItem = regexp.MustCompile(`^\d+\. `)

// RenderStoryHTML renders a flattened story as HTML. Bullet lines become a
// markdown list and consecutive plain lines stay separate paragraphs. Raw
// HTML in the story is not passed through.
func RenderStoryHTML(story string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(storyMarkdown(story)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func storyMarkdown(story string) string {
	var sb strings.Builder
	prev := ""
	for i, line := range strings.Split(story, "\n") {
		kind := ""
		switch {
		case strings.HasPrefix(line, "• "):
			line = "- " + strings.TrimPrefix(line, "• ")
			kind = "bullet"
		case orderedItem.MatchString(line):
			kind = "ordered"
		}
		if i > 0 {
			if kind != "" && kind == prev {
				sb.WriteString("\n")
			} else {
				sb.WriteString("\n\n")
			}
		}
		sb.WriteString(line)
		prev = kind
	}
	return sb.String()
}
