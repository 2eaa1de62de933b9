package doctree

import (
	"strings"
	"testing"
)

func TestPlainText_SectionsAndDepth(t *testing.T) {
	tree := &DocTree{
		Title: "notes",
		Children: []*DocNode{
			{
				Title: "Login",
				Text:  "Users sign in with SSO.",
				Children: []*DocNode{
					{Title: "Errors", Text: "Show a banner on failure."},
					{Title: "Empty"},
				},
			},
			{Text: "Trailing note."},
		},
	}

	want := "# Login\n\nUsers sign in with SSO.\n\n## Errors\n\nShow a banner on failure.\n\nTrailing note."
	if got := PlainText(tree); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestPlainText_Nil(t *testing.T) {
	if got := PlainText(nil); got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("expected 0 tokens for empty text")
	}
	if EstimateTokens("word") != 1 {
		t.Errorf("expected 1 token for one word, got %d", EstimateTokens("word"))
	}
	if got := EstimateTokens(strings.Repeat("word ", 100)); got != 133 {
		t.Errorf("expected 133 tokens, got %d", got)
	}
}

func TestTruncateTokens(t *testing.T) {
	text := strings.Repeat("alpha ", 300)

	out, cut := TruncateTokens(text, 133)
	if !cut {
		t.Fatal("expected text to be truncated")
	}
	if n := len(strings.Fields(out)); n != 100 {
		t.Errorf("expected 100 words, got %d", n)
	}

	out, cut = TruncateTokens("short text", 100)
	if cut || out != "short text" {
		t.Errorf("expected untouched text, got %q (cut=%v)", out, cut)
	}

	out, cut = TruncateTokens("anything", 0)
	if !cut || out != "" {
		t.Errorf("expected empty text for zero budget, got %q (cut=%v)", out, cut)
	}
}
