package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/casegen/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles Word attachments.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	title := trimExt(filename, ".docx")
	b := newSectionBuilder(title)

	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			text := docxParagraphText(it)
			if text == "" {
				continue
			}
			if level := docxHeadingLevel(it); level > 0 {
				b.heading(level, text)
			} else {
				b.paragraph(text)
			}
		case *docx.Table:
			b.paragraph(docxTableText(it))
		}
	}

	return b.tree(title), nil
}

// docxHeadingLevel reads "Heading1".."Heading6" (or "heading 1") paragraph styles.
func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") || len(style) != len("heading")+1 {
		return 0
	}
	level := int(style[len(style)-1] - '0')
	if level < 1 || level > 6 {
		return 0
	}
	return level
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

// docxTableText renders each table row as one " | "-separated line.
func docxTableText(tbl *docx.Table) string {
	var lines []string
	for _, row := range tbl.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var parts []string
			for _, para := range cell.Paragraphs {
				if t := docxParagraphText(para); t != "" {
					parts = append(parts, t)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		if line := strings.TrimSpace(strings.Join(cells, " | ")); strings.Trim(line, "| ") != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
