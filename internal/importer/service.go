// Package importer turns uploaded bill sheets into bills.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/category"
	"github.com/MrJamesThe3rd/finny/internal/importer/sheet"
)

// Bills creates the imported drafts. *bill.Service satisfies it.
type Bills interface {
	Create(ctx context.Context, d bill.Draft) (*bill.CreateResult, error)
}

type Categories interface {
	List(ctx context.Context) ([]*category.Category, error)
}

// Suggester maps a description to a learned category.
// *matching.Service satisfies it.
type Suggester interface {
	Suggest(ctx context.Context, description string) (uuid.UUID, bool, error)
}

type Service struct {
	parser     SheetParser
	bills      Bills
	categories Categories
	suggester  Suggester
}

func NewService(bills Bills, categories Categories, suggester Suggester) *Service {
	return &Service{
		parser:     sheet.NewParser(),
		bills:      bills,
		categories: categories,
		suggester:  suggester,
	}
}

// RowError is a sheet row that could not be turned into a bill.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

type Result struct {
	Created []*bill.Bill
	Failed  []RowError
}

// Import parses r and creates one bill series per row. Rows are independent:
// a row that fails to resolve or create is reported and the rest go on.
func (s *Service) Import(ctx context.Context, r io.Reader) (*Result, error) {
	rows, err := s.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing sheet: %w", err)
	}

	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	byName := make(map[string]uuid.UUID, len(cats))
	for _, c := range cats {
		byName[strings.ToLower(c.Name)] = c.ID
	}

	res := &Result{}

	for _, row := range rows {
		id, err := s.resolveCategory(ctx, row, byName)
		if err != nil {
			res.Failed = append(res.Failed, RowError{Line: row.Line, Err: err})
			continue
		}

		d := row.Draft
		d.CategoryID = id

		created, err := s.bills.Create(ctx, d)
		if created != nil {
			res.Created = append(res.Created, created.Bills...)
		}

		if err != nil {
			res.Failed = append(res.Failed, RowError{Line: row.Line, Err: err})
		}
	}

	slog.Info("bill sheet imported", "rows", len(rows), "created", len(res.Created), "failed", len(res.Failed))

	return res, nil
}

// resolveCategory uses the sheet's category name when it names a known
// category and falls back to the learned description rules.
func (s *Service) resolveCategory(ctx context.Context, row sheet.Row, byName map[string]uuid.UUID) (uuid.UUID, error) {
	if row.Category != "" {
		if id, ok := byName[strings.ToLower(row.Category)]; ok {
			return id, nil
		}
	}

	if s.suggester != nil {
		id, ok, err := s.suggester.Suggest(ctx, row.Draft.Description)
		if err != nil {
			return uuid.Nil, err
		}

		if ok {
			return id, nil
		}
	}

	if row.Category != "" {
		return uuid.Nil, fmt.Errorf("unknown category %q", row.Category)
	}

	return uuid.Nil, fmt.Errorf("no category for %q", row.Draft.Description)
}
