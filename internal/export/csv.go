package export

import (
	"io"
	"strings"
)

// CSV response metadata.
const (
	CSVContentType = "text/csv;charset=utf-8"
	CSVFilename    = "test_cases.csv"
)

// WriteCSV writes the header row unquoted and every value double-quoted, with
// lines separated by "\n" and no trailing newline.
func WriteCSV(w io.Writer, cols []string, rows []TestCase) error {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(cols, ","))
	for _, row := range rows {
		values := make([]string, len(cols))
		for i, c := range cols {
			values[i] = `"` + strings.ReplaceAll(row[c], `"`, `""`) + `"`
		}
		lines = append(lines, strings.Join(values, ","))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}
