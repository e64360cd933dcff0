// Package export renders search results as spreadsheets.
package export

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

const (
	SheetName   = "resultats"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	defaultSheet = "Sheet1"
	maxColWidth  = 60
)

// Table is a header row plus data rows. Cells may be strings, numbers or
// nil for an empty cell.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Workbook writes the table to a single-sheet xlsx document.
func Workbook(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, SheetName); err != nil {
		return nil, eris.Wrap(err, "export: rename sheet")
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, eris.Wrap(err, "export: write header")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
	})
	if err != nil {
		return nil, eris.Wrap(err, "export: header style")
	}

	if err := f.SetRowStyle(SheetName, 1, 1, headerStyle); err != nil {
		return nil, eris.Wrap(err, "export: header style")
	}

	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = len([]rune(c))
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, eris.Wrapf(err, "export: row %d", i+2)
		}

		values := make([]any, len(row))
		copy(values, row)

		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, eris.Wrapf(err, "export: row %d", i+2)
		}

		for j, v := range row {
			if j < len(widths) {
				if s, ok := v.(string); ok {
					widths[j] = max(widths[j], len([]rune(s)))
				}
			}
		}
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, eris.Wrap(err, "export: column name")
		}

		if err := f.SetColWidth(SheetName, col, col, float64(min(w+2, maxColWidth))); err != nil {
			return nil, eris.Wrap(err, "export: column width")
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, eris.Wrap(err, "export: write workbook")
	}

	return buf.Bytes(), nil
}

// FileName returns the download name of a report, e.g.
// smart_report_siren_552100554.xlsx. Name searches omit the mode.
func FileName(mode, query string) string {
	slug := Slug(query)
	if slug == "" {
		slug = "export"
	}

	if mode == "" || mode == "name" {
		return "smart_report_" + slug + ".xlsx"
	}

	return "smart_report_" + mode + "_" + slug + ".xlsx"
}

// Slug strips accents and keeps letters, digits, dots and dashes. Spaces
// become underscores.
func Slug(s string) string {
	var b strings.Builder

	for _, r := range norm.NFD.String(strings.TrimSpace(s)) {
		switch {
		case unicode.IsMark(r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '_':
			b.WriteRune('_')
		}
	}

	return b.String()
}
