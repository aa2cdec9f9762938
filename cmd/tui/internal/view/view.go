// Package view holds the screens of the finny terminal UI.
package view

import (
	tea "github.com/charmbracelet/bubbletea"
)

// View is a screen the menu can switch to. The program frames it with its
// title and a one line key help.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

var (
	_ View = BillsModel{}
	_ View = TransactionsModel{}
	_ View = ImportModel{}
	_ View = ExportModel{}
)
