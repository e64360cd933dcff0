package entreprise

import (
	"strconv"
	"strings"

	"github.com/Tpgainz/smart-business-directory/export"
	"github.com/Tpgainz/smart-business-directory/scoring"
)

var (
	sirenColumns = []string{"SIREN", "Name", "NAF code", "Legal category", "Employee size code", "Open establishments", "Health score", "Status"}
	siretColumns = []string{"SIRET", "SIREN", "Main activity", "Employee size code", "Open establishments", "Health score", "Status"}
	nameColumns  = []string{"Full name", "SIREN", "Head office SIRET", "Head office address", "NAF code", "Employee size code", "Open establishments", "Health score", "Status"}
)

// Table lays the reports out with the columns of the search mode.
func (r *SearchResult) Table() export.Table {
	t := export.Table{Rows: make([][]any, 0, len(r.Data))}

	switch r.Mode {
	case ModeSiret:
		t.Columns = siretColumns
	case ModeName:
		t.Columns = nameColumns
	default:
		t.Columns = sirenColumns
	}

	for i := range r.Data {
		t.Rows = append(t.Rows, r.Data[i].row(r.Mode))
	}

	return t
}

// Workbook renders the result as an xlsx document.
func (r *SearchResult) Workbook() ([]byte, error) {
	return export.Workbook(r.Table())
}

func (r *SearchResult) FileName() string {
	return export.FileName(string(r.Mode), r.Query)
}

func (c *CompanyReport) row(mode SearchMode) []any {
	status := strings.TrimSpace(c.Assessment.Status)

	switch mode {
	case ModeSiret:
		return []any{c.Siret, c.Siren, c.NAF, CellValue(c.EmployeeSizeCode), CellValue(c.EstablishmentCount), c.Assessment.Score, status}
	case ModeName:
		return []any{c.Name, c.Siren, c.HeadOfficeSiret, c.HeadOfficeAddress, c.NAF, CellValue(c.EmployeeSizeCode), CellValue(c.EstablishmentCount), c.Assessment.Score, status}
	default:
		return []any{c.Siren, c.Name, c.NAF, c.LegalCategory, CellValue(c.EmployeeSizeCode), CellValue(c.EstablishmentCount), c.Assessment.Score, status}
	}
}

// CellValue is how a loosely typed registry value lands in a spreadsheet:
// numbers stay numbers, missing values leave the cell empty.
func CellValue(f scoring.Field) any {
	if f.IsAbsent() {
		return nil
	}

	if n, ok := f.Int(); ok && f.IsNumber() && strconv.Itoa(n) == f.String() {
		return n
	}

	return f.String()
}
