// Package parser turns Jira issue attachments into section trees so their
// text can travel with the user story to the test-case generator.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/casegen/internal/doctree"
)

// Parser converts raw attachment bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// Options tunes parser selection.
type Options struct {
	PDFFallbackPdftotext bool
}

var supportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported attachment type: %q", ext)
	}
}

// IsSupported reports whether an attachment's extension can be parsed.
func IsSupported(filename string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ExtractText parses data with the parser for filename and renders the
// result as plain text.
func ExtractText(data []byte, filename string, opts Options) (string, error) {
	p, err := ForFile(filename, opts)
	if err != nil {
		return "", err
	}
	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", filename, err)
	}
	return doctree.PlainText(tree), nil
}
