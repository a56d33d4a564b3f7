package workbook

import (
	"fmt"
	"strings"

	"invoice-dashboard/internal/models"
)

// emptyHeader names columns whose header cell is blank
const emptyHeader = "__EMPTY"

// Sheet is a header-keyed view over a sheet's data rows. It implements
// ingest.RowSource: rows are materialised one at a time on demand.
type Sheet struct {
	Name    string
	Headers []string
	rows    [][]string
	index   []int
}

// NewSheet builds a Sheet from raw cells whose first row is the header.
// Blank rows are dropped.
func NewSheet(name string, cells [][]string) *Sheet {
	s := &Sheet{Name: name}
	if len(cells) == 0 {
		return s
	}

	s.Headers = UniqueHeaders(cells[0])
	s.rows = cells[1:]
	for i, row := range s.rows {
		if !isBlank(row) {
			s.index = append(s.index, i)
		}
	}
	return s
}

// Len returns the number of non-blank data rows
func (s *Sheet) Len() int {
	return len(s.index)
}

// Row maps the i-th non-blank data row onto the headers. Missing cells read as "".
func (s *Sheet) Row(i int) (models.RawRow, error) {
	if i < 0 || i >= len(s.index) {
		return nil, fmt.Errorf("sheet %s: row %d out of range (%d rows)", s.Name, i, len(s.index))
	}

	cells := s.rows[s.index[i]]
	row := make(models.RawRow, len(s.Headers))
	for c, header := range s.Headers {
		if c < len(cells) {
			row[header] = cells[c]
		} else {
			row[header] = ""
		}
	}
	return row, nil
}

// Records materialises every row
func (s *Sheet) Records() []models.RawRow {
	out := make([]models.RawRow, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		row, _ := s.Row(i)
		out = append(out, row)
	}
	return out
}

// UniqueHeaders trims header cells and disambiguates repeats as name__1,
// name__2 and so on. Blank headers become __EMPTY, __EMPTY__1, ...
func UniqueHeaders(raw []string) []string {
	seen := make(map[string]int, len(raw))
	out := make([]string, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = emptyHeader
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			out[i] = fmt.Sprintf("%s__%d", name, n+1)
			continue
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}

// Pairs returns the first two cells of every non-blank row, for headerless
// code/description lookup sheets.
func Pairs(cells [][]string) [][]string {
	out := make([][]string, 0, len(cells))
	for _, row := range cells {
		if isBlank(row) {
			continue
		}
		pair := []string{"", ""}
		copy(pair, row)
		out = append(out, pair)
	}
	return out
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
