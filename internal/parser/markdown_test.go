package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Checkout

Intro text.

## Payment

Card payments only.

### Declines

Show the decline reason.

## Shipping

Ships in 2 days.
`
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "checkout.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.Title != "checkout" {
		t.Errorf("expected title %q, got %q", "checkout", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level child (h1), got %d", len(tree.Children))
	}

	h1 := tree.Children[0]
	if h1.Title != "Checkout" {
		t.Errorf("expected h1 title %q, got %q", "Checkout", h1.Title)
	}
	if h1.Text != "Intro text." {
		t.Errorf("expected h1 text %q, got %q", "Intro text.", h1.Text)
	}
	if len(h1.Children) != 2 {
		t.Fatalf("expected 2 h2 children, got %d", len(h1.Children))
	}

	payment := h1.Children[0]
	if payment.Title != "Payment" || payment.Text != "Card payments only." {
		t.Errorf("unexpected payment section: %+v", payment)
	}
	if len(payment.Children) != 1 || payment.Children[0].Title != "Declines" {
		t.Fatalf("expected Declines under Payment, got %+v", payment.Children)
	}
	if h1.Children[1].Title != "Shipping" {
		t.Errorf("expected %q, got %q", "Shipping", h1.Children[1].Title)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := `Just some plain text.

Another paragraph here.`

	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 child for headingless markdown, got %d", len(tree.Children))
	}
	want := "Just some plain text.\n\nAnother paragraph here."
	if tree.Children[0].Text != want {
		t.Errorf("expected %q, got %q", want, tree.Children[0].Text)
	}
}

func TestMarkdownParser_TextBeforeFirstHeadingKept(t *testing.T) {
	input := "Preamble.\n\n# Section\n\nBody.\n"
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected preamble + section, got %d children", len(tree.Children))
	}
	if tree.Children[0].Title != "" || tree.Children[0].Text != "Preamble." {
		t.Errorf("unexpected preamble node: %+v", tree.Children[0])
	}
	if tree.Children[1].Title != "Section" {
		t.Errorf("expected %q, got %q", "Section", tree.Children[1].Title)
	}
}

func TestMarkdownParser_CodeBlocksAndLists(t *testing.T) {
	input := "# API\n\nEndpoints:\n\n```\nGET /api/users\nPOST /api/users\n```\n\n- first rule\n- second rule\n"

	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level child, got %d", len(tree.Children))
	}

	text := tree.Children[0].Text
	for _, want := range []string{"GET /api/users", "POST /api/users", "first rule", "second rule"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected text to contain %q, got %q", want, text)
		}
	}
	if strings.Count(text, "Endpoints:") != 1 {
		t.Errorf("expected paragraph text once, got %q", text)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected 0 children for empty input, got %d", len(tree.Children))
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"NOTES.MD", "NOTES"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		tree, err := p.Parse(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if tree.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, tree.Title)
		}
	}
}
