package view

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/finny/internal/calendar"
	"github.com/MrJamesThe3rd/finny/internal/transaction"
)

type txState int

const (
	txStateTimeframe txState = iota
	txStateList
	txStateConfirm
)

// txItem wraps a transaction to implement list.Item.
type txItem struct {
	tx *transaction.Transaction
}

func (i txItem) Title() string {
	kind := faintStyle.Render(fmt.Sprintf("[%s]", i.tx.Type))

	return fmt.Sprintf("%s  %s  %s  %s", FormatDate(calendar.Of(i.tx.Date)), FormatAmount(i.tx.BalanceEffect()), kind, i.tx.Description)
}

func (i txItem) Description() string {
	if i.tx.BillID != nil {
		return "Bill payment"
	}

	return ""
}

func (i txItem) FilterValue() string {
	return i.tx.Description
}

// TransactionsModel lists ledger entries of a timeframe. Deleting a bill
// payment reopens the bill it settled.
type TransactionsModel struct {
	CommonModel
	txService *transaction.Service

	state           txState
	timeframePicker TimeframePicker
	list            list.Model
	form            *huh.Form
	txs             []*transaction.Transaction
	selectedTx      *transaction.Transaction
	confirmed       *bool

	filter  transaction.ListFilter
	loading bool
	status  string
}

func NewTransactionsModel(txSvc *transaction.Service) TransactionsModel {
	l := list.New([]list.Item{}, txItemDelegate{}, 0, 0)
	l.Title = "Transactions"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(true)

	return TransactionsModel{
		txService:       txSvc,
		timeframePicker: NewTimeframePicker(TimeframeThisWeek, nil),
		list:            l,
	}
}

func (m TransactionsModel) Title() string { return "Transactions" }

func (m TransactionsModel) ShortHelp() string {
	switch m.state {
	case txStateTimeframe:
		return "Esc: back | Enter: select"
	case txStateList:
		return "Esc: back | x: delete | /: filter"
	case txStateConfirm:
		return "Esc: cancel | Enter: confirm"
	}

	return ""
}

func (m TransactionsModel) Init() tea.Cmd {
	return nil
}

func (m TransactionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.filter = transaction.ListFilter{}

		if !msg.All {
			start, end := dayBounds(msg.From, msg.To)
			m.filter.StartDate = &start
			m.filter.EndDate = &end
		}

		m.loading = true
		m.state = txStateList

		return m, m.loadTxsCmd()

	case loadTxsMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.txs = msg.txs
		m.refreshListItems()

		if len(msg.txs) == 0 {
			m.status = "No transactions found."
		}

		return m, nil

	case deleteTxResultMsg:
		m.state = txStateList
		m.form = nil

		if msg.err != nil {
			m.status = fmt.Sprintf("Error deleting: %v", msg.err)
			return m, nil
		}

		m.status = "Deleted."
		if msg.payment {
			m.status = "Deleted. The bill it paid is pending again."
		}

		return m, m.loadTxsCmd()

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil
	}

	switch m.state {
	case txStateTimeframe:
		return m.updateTimeframe(msg)
	case txStateList:
		return m.updateList(msg)
	case txStateConfirm:
		return m.updateConfirm(msg)
	}

	return m, nil
}

func (m TransactionsModel) updateTimeframe(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			return m, Back
		}
	}

	var cmd tea.Cmd
	m.timeframePicker, cmd = m.timeframePicker.Update(msg)

	return m, cmd
}

func (m TransactionsModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch keyMsg.String() {
		case "esc":
			m.state = txStateTimeframe
			m.timeframePicker.Reset()
			m.status = ""

			return m, nil
		case "x":
			return m.startConfirm()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m TransactionsModel) startConfirm() (tea.Model, tea.Cmd) {
	selected, ok := m.list.SelectedItem().(txItem)
	if !ok {
		return m, nil
	}

	m.selectedTx = selected.tx
	m.confirmed = new(bool)

	description := "The account balance is restored."
	if selected.tx.BillID != nil {
		description += "\nThe bill it paid goes back to pending."
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s?", selected.tx.Description)).
				Description(description).
				Affirmative("Delete").
				Negative("Keep").
				Value(m.confirmed),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = txStateConfirm

	return m, m.form.Init()
}

func (m TransactionsModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = txStateList
		m.form = nil

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if !*m.confirmed {
		m.state = txStateList
		m.form = nil

		return m, nil
	}

	return m, m.deleteTxCmd()
}

func (m TransactionsModel) View() string {
	switch m.state {
	case txStateTimeframe:
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())

	case txStateList:
		if m.loading {
			return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
		}

		statusLine := ""
		if m.status != "" {
			statusLine = faintStyle.Render(m.status) + "\n"
		}

		return lipgloss.NewStyle().Padding(1).Render(statusLine + m.list.View())

	case txStateConfirm:
		if m.form == nil {
			return ""
		}

		return lipgloss.NewStyle().Padding(1).Render(m.txInfoView() + "\n" + m.form.View())
	}

	return ""
}

func (m TransactionsModel) txInfoView() string {
	if m.selectedTx == nil {
		return ""
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Render(fmt.Sprintf(
			"Date: %s  |  Type: %s  |  Amount: %s",
			m.selectedTx.Date.Format(time.DateOnly),
			m.selectedTx.Type,
			FormatAmount(m.selectedTx.Amount),
		))
}

func (m *TransactionsModel) refreshListItems() {
	items := make([]list.Item, len(m.txs))
	for i, tx := range m.txs {
		items[i] = txItem{tx: tx}
	}

	m.list.SetItems(items)
}

// Messages

type loadTxsMsg struct {
	txs []*transaction.Transaction
	err error
}

func (m TransactionsModel) loadTxsCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := m.txService.List(ctx, filter)

		return loadTxsMsg{txs: txs, err: err}
	}
}

type deleteTxResultMsg struct {
	payment bool
	err     error
}

func (m TransactionsModel) deleteTxCmd() tea.Cmd {
	tx := m.selectedTx
	txSvc := m.txService

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		err := txSvc.Delete(ctx, tx.ID)

		return deleteTxResultMsg{payment: tx.BillID != nil, err: err}
	}
}

// txItemDelegate renders items in the list.
type txItemDelegate struct{}

func (d txItemDelegate) Height() int                             { return 2 }
func (d txItemDelegate) Spacing() int                            { return 0 }
func (d txItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d txItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(txItem)
	if !ok {
		return
	}

	title := i.Title()
	desc := i.Description()

	if index == m.Index() {
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("> " + title)
	}

	fmt.Fprintf(w, "  %s\n", title)

	if desc == "" {
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "    %s\n", faintStyle.Render(desc))
}
