package parser

import (
	"strings"

	"github.com/dgallion1/casegen/internal/doctree"
)

// sectionBuilder nests headings by level and attaches body text to the most
// recent heading. Markdown, HTML and DOCX attachments all share it.
type sectionBuilder struct {
	root  *doctree.DocNode
	stack []sectionEntry
	text  strings.Builder
}

type sectionEntry struct {
	node  *doctree.DocNode
	level int
}

func newSectionBuilder(title string) *sectionBuilder {
	root := &doctree.DocNode{Title: title}
	return &sectionBuilder{
		root:  root,
		stack: []sectionEntry{{node: root, level: 0}},
	}
}

// heading opens a new section at level, closing any at the same or deeper level.
func (b *sectionBuilder) heading(level int, title string) {
	b.flush()
	node := &doctree.DocNode{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, node)
	b.stack = append(b.stack, sectionEntry{node: node, level: level})
}

// paragraph adds body text to the current section.
func (b *sectionBuilder) paragraph(t string) {
	if t == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(t)
}

func (b *sectionBuilder) flush() {
	t := strings.TrimSpace(b.text.String())
	b.text.Reset()
	if t == "" {
		return
	}
	top := b.stack[len(b.stack)-1].node
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// tree finishes building. Text that appeared before any heading is kept as a
// leading untitled section.
func (b *sectionBuilder) tree(title string) *doctree.DocTree {
	b.flush()
	tree := &doctree.DocTree{Title: title}
	if b.root.Text != "" {
		tree.Children = append(tree.Children, &doctree.DocNode{Text: b.root.Text})
	}
	tree.Children = append(tree.Children, b.root.Children...)
	return tree
}

// trimExt strips any of exts (case-insensitive) from the end of filename.
func trimExt(filename string, exts ...string) string {
	lower := strings.ToLower(filename)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return filename[:len(filename)-len(ext)]
		}
	}
	return filename
}
