package export

import (
	"fmt"
	"io"

	"github.com/fumiama/go-docx"
)

// DOCX response metadata.
const (
	DOCXContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	DOCXFilename    = "test_cases.docx"
)

// WriteDOCX writes a Word document holding one table: a bold header row of
// column names followed by a row per test case.
func WriteDOCX(w io.Writer, cols []string, rows []TestCase) error {
	if len(cols) == 0 {
		return ErrNoTestCases
	}
	doc := docx.New().WithDefaultTheme()
	tbl := doc.AddTable(len(rows)+1, len(cols), 0, nil)

	header := tbl.TableRows[0]
	for i, c := range cols {
		header.TableCells[i].AddParagraph().AddText(c).Bold()
	}
	for r, row := range rows {
		cells := tbl.TableRows[r+1].TableCells
		for i, c := range cols {
			cells[i].AddParagraph().AddText(row[c])
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
