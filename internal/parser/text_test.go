package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/casegen/internal/doctree"
)

func TestExtractText_AcceptanceCriteriaAttachment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"given when then blocks",
			"Given a logged-in user\nAnd an open cart\n\nWhen they check out\n\nThen an order is created",
			"Given a logged-in user\nAnd an open cart\n\nWhen they check out\n\nThen an order is created",
		},
		{
			"crlf line endings",
			"Given a guest\r\n\r\nThen login is required\r\n",
			"Given a guest\n\nThen login is required",
		},
		{
			"blank and whitespace-only gaps collapse",
			"Scenario: refund\n\n\n   \n\t\nGiven a paid order",
			"Scenario: refund\n\nGiven a paid order",
		},
		{"empty", "", ""},
		{"whitespace only", " \n\t\n", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractText([]byte(tc.input), "criteria.txt", Options{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestExtractText_CriteriaFitTokenBudget(t *testing.T) {
	input := strings.Repeat("Given a cart with items\n\n", 50)
	text, err := ExtractText([]byte(input), "CRITERIA.TXT", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(text, "Given a cart with items\n\nGiven") {
		t.Fatalf("unexpected text start %q", text[:min(len(text), 40)])
	}
	cut, truncated := doctree.TruncateTokens(text, 20)
	if !truncated {
		t.Fatal("expected long criteria to be truncated")
	}
	if doctree.EstimateTokens(cut) > 20 {
		t.Errorf("truncated text over budget: %d tokens", doctree.EstimateTokens(cut))
	}
}

func TestTextParser_SectionsAndTitle(t *testing.T) {
	tree, err := (&TextParser{}).Parse(strings.NewReader("Checkout rules\n\nCards only"), "Checkout.TXT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "Checkout" {
		t.Errorf("expected title %q, got %q", "Checkout", tree.Title)
	}
	if len(tree.Children) != 2 || tree.Children[1].Text != "Cards only" {
		t.Fatalf("unexpected sections %+v", tree.Children)
	}
	for i, c := range tree.Children {
		if c.Title != "" {
			t.Errorf("section %d: expected untitled text section, got title %q", i, c.Title)
		}
	}
}
