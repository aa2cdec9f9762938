package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/civil"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/finny/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/finny/internal/app"
	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/calendar"
	"github.com/MrJamesThe3rd/finny/internal/config"
	"github.com/MrJamesThe3rd/finny/internal/logging"
)

type model struct {
	app *app.App

	currentView View

	billsView        view.BillsModel
	transactionsView view.TransactionsModel
	importView       view.ImportModel
	exportView       view.ExportModel
}

type View int

const (
	ViewMenu         View = 0
	ViewBills        View = 1
	ViewTransactions View = 2
	ViewImport       View = 3
	ViewExport       View = 4
)

func today() civil.Date {
	return calendar.Today(time.Local)
}

func initialModel(a *app.App) model {
	return model{
		app:              a,
		currentView:      ViewMenu,
		billsView:        view.NewBillsModel(a.Bills, a.Accounts, a.Categories, today),
		transactionsView: view.NewTransactionsModel(a.Transactions),
		importView:       view.NewImportModel(a.Importer),
		exportView:       view.NewExportModel(a.Export),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewBills
				return m, m.billsView.Init()
			case "2":
				m.currentView = ViewTransactions
				m.transactionsView = view.NewTransactionsModel(m.app.Transactions)

				return m, m.transactionsView.Init()
			case "3":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.app.Importer)

				return m, m.importView.Init()
			case "4":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.app.Export)

				return m, m.exportView.Init()
			}
		}
	case view.SummaryMsg:
		// The bills page keeps its counters current even while hidden.
		newModel, cmd := m.billsView.Update(msg)
		m.billsView = newModel.(view.BillsModel)

		if m.currentView != ViewBills {
			return m, nil
		}

		return m, cmd
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewBills:
		var newModel tea.Model
		newModel, cmd = m.billsView.Update(msg)
		m.billsView = newModel.(view.BillsModel)
	case ViewTransactions:
		var newModel tea.Model
		newModel, cmd = m.transactionsView.Update(msg)
		m.transactionsView = newModel.(view.TransactionsModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) screen() view.View {
	switch m.currentView {
	case ViewBills:
		return m.billsView
	case ViewTransactions:
		return m.transactionsView
	case ViewImport:
		return m.importView
	case ViewExport:
		return m.exportView
	}

	return nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).PaddingLeft(1)
	helpStyle  = lipgloss.NewStyle().Faint(true).PaddingLeft(1)
)

func (m model) View() string {
	s := m.screen()
	if s == nil {
		return lipgloss.NewStyle().Padding(2).Render(
			"Finny TUI\n\n" +
				"1. Bills\n" +
				"2. Transactions\n" +
				"3. Import Bills\n" +
				"4. Export Bills\n\n" +
				"q. Quit",
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(s.Title()),
		s.View(),
		helpStyle.Render(s.ShortHelp()),
	)
}

func main() {
	if err := run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// The terminal belongs to the UI; only errors reach stderr.
	if _, err := logging.Setup("error", cfg.Log.Format); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	go func() {
		if err := a.Listen(ctx); err != nil {
			slog.Error("change listener stopped", "error", err)
		}
	}()

	p := tea.NewProgram(initialModel(a), tea.WithAltScreen())

	// Watch delivers its first summary synchronously and Send blocks until
	// the program runs, so subscribe from a goroutine.
	go func() {
		_, err := a.Bills.Watch(ctx, today, func(b bill.Buckets, err error) {
			p.Send(view.SummaryMsg{Buckets: b, Err: err})
		})
		if err != nil {
			p.Send(view.SummaryMsg{Err: err})
		}
	}()

	_, err = p.Run()

	return err
}
