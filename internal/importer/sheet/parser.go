// Package sheet parses bill spreadsheets exported as ';' separated CSV.
package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/MrJamesThe3rd/finny/internal/bill"
	enc "github.com/MrJamesThe3rd/finny/internal/encoding"
)

// Row is one bill read from a sheet. Category holds the sheet's category
// name, empty when the column is missing or blank.
type Row struct {
	Line     int
	Category string
	Draft    bill.Draft
}

var dateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006"}

// Parser reads bill sheets in any of the known layouts, detected from the
// header row.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]Row, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching bill sheet format found: expected description, amount and due date columns")
	}

	return parseRows(profile, cols, rows[headerIdx+1:], headerIdx+1)
}

type colIndex map[string]int

// index returns the column of name, or -1 when the sheet lacks it.
func (c colIndex) index(name string) int {
	if name == "" {
		return -1
	}

	if i, ok := c[name]; ok {
		return i
	}

	return -1
}

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]Row, error) {
	var out []Row

	for i, row := range rows {
		rowNum := headerRowNum + i + 1

		due, ok := parseDate(cellValue(row, cols.index(p.DueCol)))
		if !ok {
			continue
		}

		desc := cellValue(row, cols.index(p.DescCol))
		if desc == "" {
			return nil, fmt.Errorf("row %d: missing description", rowNum)
		}

		amount, err := parseAmount(cellValue(row, cols.index(p.AmountCol)))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid amount: %w", rowNum, err)
		}

		kind, err := parseKind(p, cols, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		out = append(out, Row{
			Line:     rowNum,
			Category: cellValue(row, cols.index(p.CategoryCol)),
			Draft: bill.Draft{
				Description: desc,
				Amount:      amount,
				DueDate:     due,
				Kind:        kind,
			},
		})
	}

	return out, nil
}

// parseKind reads the optional series columns. Installments win over a
// recurrence when a row fills both.
func parseKind(p *Profile, cols colIndex, row []string) (bill.Kind, error) {
	if s := cellValue(row, cols.index(p.InstallCol)); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid installments %q", s)
		}

		if n > 1 {
			return bill.Installment{Total: n}, nil
		}
	}

	s := strings.ToLower(cellValue(row, cols.index(p.RecurCol)))
	if s == "" {
		return bill.Plain{}, nil
	}

	t, ok := p.recurrenceOf[s]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence %q", s)
	}

	rec := bill.Recurring{Type: bill.RecurrenceType(t)}

	if s := cellValue(row, cols.index(p.RecurEndCol)); s != "" {
		end, ok := parseDate(s)
		if !ok {
			return nil, fmt.Errorf("invalid recurrence end %q", s)
		}

		rec.EndDate = &end
	}

	return rec, nil
}

// parseDate returns false for empty or unparseable cells such as footers.
func parseDate(s string) (civil.Date, bool) {
	if s == "" {
		return civil.Date{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}

	return civil.Date{}, false
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
