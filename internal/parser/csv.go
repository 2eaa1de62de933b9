package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/casegen/internal/doctree"
)

// csvBatchRows is the number of data rows grouped into one section.
const csvBatchRows = 20

// CSVParser handles CSV attachments such as exported requirement tables.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Title: trimExt(filename, ".csv")}
	if len(records) == 0 {
		return tree, nil
	}

	headers := records[0]
	rows := records[1:]
	for start := 0; start < len(rows); start += csvBatchRows {
		end := min(start+csvBatchRows, len(rows))

		var text strings.Builder
		for _, row := range rows[start:end] {
			cells := make([]string, 0, len(row))
			for j, cell := range row {
				if j < len(headers) && headers[j] != "" {
					cells = append(cells, headers[j]+": "+cell)
				} else {
					cells = append(cells, cell)
				}
			}
			text.WriteString(strings.Join(cells, ", "))
			text.WriteString("\n")
		}

		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: fmt.Sprintf("Rows %d-%d", start+2, end+1), // 1-indexed, after the header
			Text:  strings.TrimSpace(text.String()),
		})
	}

	return tree, nil
}
