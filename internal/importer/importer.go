package importer

import (
	"io"

	"github.com/MrJamesThe3rd/finny/internal/importer/sheet"
)

// SheetParser reads a bill sheet into rows. *sheet.Parser satisfies it.
type SheetParser interface {
	Parse(r io.Reader) ([]sheet.Row, error)
}
