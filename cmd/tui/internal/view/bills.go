package view

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/finny/internal/account"
	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/calendar"
	"github.com/MrJamesThe3rd/finny/internal/category"
)

type billsState int

const (
	billsStateBrowse billsState = iota
	billsStateCreate
	billsStatePay
	billsStateDelete
)

var billTabs = []bill.Tab{bill.TabAll, bill.TabOverdue, bill.TabToday, bill.TabUpcoming}

// SummaryMsg carries a fresh classification of the pending bills. The
// program sends one after every change to the bills table.
type SummaryMsg struct {
	Buckets bill.Buckets
	Err     error
}

// BillsModel is the bills page: pending bills of the selected tab, grouped
// by due date, with forms to create, pay and delete them.
type BillsModel struct {
	CommonModel
	bills      *bill.Service
	accounts   *account.Service
	categories *category.Service
	today      func() civil.Date

	state  billsState
	tabIdx int
	table  table.Model
	rows   []*bill.Bill

	summary bill.Buckets
	live    bool

	categoryList []*category.Category
	accountList  []*account.Account

	form     *huh.Form
	create   *billForm
	pay      *payForm
	deletion *deleteForm

	loading bool
	status  string
	err     error
}

func NewBillsModel(bills *bill.Service, accounts *account.Service, categories *category.Service, today func() civil.Date) BillsModel {
	columns := []table.Column{
		{Title: "Due", Width: 12},
		{Title: "Description", Width: 32},
		{Title: "Amount", Width: 12},
		{Title: "Series", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	if today == nil {
		today = func() civil.Date { return calendar.Today(time.Local) }
	}

	return BillsModel{
		bills:      bills,
		accounts:   accounts,
		categories: categories,
		today:      today,
		table:      t,
		loading:    true,
	}
}

func (m BillsModel) Title() string { return "Bills" }

func (m BillsModel) ShortHelp() string {
	if m.state != billsStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | t: tab | n: new | p: pay | d: delete | f: delete future | r: refresh"
}

func (m BillsModel) Init() tea.Cmd {
	return tea.Batch(m.loadBoardCmd(), m.loadRefsCmd())
}

func (m BillsModel) tab() bill.Tab {
	return billTabs[m.tabIdx]
}

func (m BillsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SummaryMsg:
		if msg.Err != nil {
			m.status = fmt.Sprintf("Live updates: %v", msg.Err)
			return m, nil
		}

		m.summary = msg.Buckets
		m.live = true

		return m, m.loadBoardCmd()

	case loadBoardMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.rows = msg.rows
		m.refreshTable()

		return m, nil

	case loadRefsMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading accounts: %v", msg.err)
			return m, nil
		}

		m.categoryList = msg.categories
		m.accountList = msg.accounts

		return m, nil

	case impactMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		return m.enterDelete(msg.impact, msg.future)

	case billActionMsg:
		m.state = billsStateBrowse
		m.form = nil
		m.table.Focus()
		m.status = msg.status

		if msg.err != nil {
			m.status = describeError(msg.err)
		}

		var cmds []tea.Cmd

		cmds = append(cmds, m.loadBoardCmd())
		if msg.refs {
			cmds = append(cmds, m.loadRefsCmd())
		}

		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-12, 5))

		return m, nil
	}

	if m.state == billsStateBrowse {
		return m.updateBrowse(msg)
	}

	return m.updateForm(msg)
}

func (m BillsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, tea.Batch(m.loadBoardCmd(), m.loadRefsCmd())
		case "t", "tab":
			m.tabIdx = (m.tabIdx + 1) % len(billTabs)
			m.table.SetCursor(0)

			return m, m.loadBoardCmd()
		case "n":
			return m.enterCreate()
		case "p":
			return m.enterPay()
		case "d":
			return m, m.impactCmd(false)
		case "f":
			return m, m.impactCmd(true)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m BillsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = billsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		m.state = billsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	case huh.StateCompleted:
	default:
		return m, cmd
	}

	switch m.state {
	case billsStateCreate:
		return m, m.createCmd()
	case billsStatePay:
		return m, m.payCmd()
	case billsStateDelete:
		if !m.deletion.confirmed {
			m.state = billsStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}

		return m, m.deleteCmd()
	}

	return m, nil
}

func (m BillsModel) selected() *bill.Bill {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.rows) {
		return nil
	}

	return m.rows[idx]
}

func (m BillsModel) enterCreate() (tea.Model, tea.Cmd) {
	if len(m.categoryList) == 0 {
		m.status = "Create a category first."
		return m, nil
	}

	m.create = &billForm{DueDate: FormatDate(m.today()), Kind: kindSingle, Recurrence: bill.RecurrenceMonthly}

	categoryOpts := make([]huh.Option[uuid.UUID], 0, len(m.categoryList))
	for _, c := range m.categoryList {
		categoryOpts = append(categoryOpts, huh.NewOption(c.Name, c.ID))
	}

	f := m.create

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Description").
				Value(&f.Description).
				Validate(required("description")),
			huh.NewInput().
				Title("Amount").
				Placeholder("0.00").
				Value(&f.Amount).
				Validate(validAmount),
			huh.NewInput().
				Title("Due date").
				Placeholder("YYYY-MM-DD").
				Value(&f.DueDate).
				Validate(validDate),
			huh.NewSelect[uuid.UUID]().
				Title("Category").
				Options(categoryOpts...).
				Value(&f.CategoryID),
			huh.NewSelect[string]().
				Title("Repeats").
				Options(
					huh.NewOption("Once", kindSingle),
					huh.NewOption("In installments", kindInstallments),
					huh.NewOption("On a schedule", kindRecurring),
				).
				Value(&f.Kind),
			huh.NewConfirm().
				Title("Already paid?").
				Value(&f.Paid),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Number of installments").
				Value(&f.Installments).
				Validate(validInstallments),
		).WithHideFunc(func() bool { return f.Kind != kindInstallments }),
		huh.NewGroup(
			huh.NewSelect[bill.RecurrenceType]().
				Title("Every").
				Options(
					huh.NewOption("Week", bill.RecurrenceWeekly),
					huh.NewOption("Month", bill.RecurrenceMonthly),
					huh.NewOption("Year", bill.RecurrenceYearly),
				).
				Value(&f.Recurrence),
			huh.NewInput().
				Title("Until (optional)").
				Placeholder("YYYY-MM-DD").
				Value(&f.EndDate).
				Validate(optional(validDate)),
		).WithHideFunc(func() bool { return f.Kind != kindRecurring }),
	).WithWidth(50).WithShowHelp(false)

	m.state = billsStateCreate
	m.table.Blur()

	return m, m.form.Init()
}

func (m BillsModel) enterPay() (tea.Model, tea.Cmd) {
	b := m.selected()
	if b == nil {
		return m, nil
	}

	if len(m.accountList) == 0 {
		m.status = "Create an account first."
		return m, nil
	}

	m.pay = &payForm{bill: b, AccountID: m.accountList[0].ID}

	opts := make([]huh.Option[uuid.UUID], 0, len(m.accountList))
	for _, a := range m.accountList {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%s)", a.Name, FormatAmount(a.Balance)), a.ID))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[uuid.UUID]().
				Title(fmt.Sprintf("Pay %s %s from", b.Description, FormatAmount(b.Amount))).
				Options(opts...).
				Value(&m.pay.AccountID),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = billsStatePay
	m.table.Blur()

	return m, m.form.Init()
}

func (m BillsModel) enterDelete(impact *bill.Impact, future bool) (tea.Model, tea.Cmd) {
	m.deletion = &deleteForm{impact: impact, future: future}

	title := fmt.Sprintf("Delete %s due %s?", impact.Bill.Description, FormatDate(impact.Bill.DueDate))
	if future {
		title = fmt.Sprintf("Delete %s and its later occurrences?", impact.Bill.Description)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(impactDescription(impact, future)).
				Affirmative("Delete").
				Negative("Keep").
				Value(&m.deletion.confirmed),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = billsStateDelete
	m.table.Blur()

	return m, m.form.Init()
}

func impactDescription(impact *bill.Impact, future bool) string {
	var lines []string

	if impact.ChildInstallments > 0 {
		lines = append(lines, fmt.Sprintf("Also removes %d installment(s).", impact.ChildInstallments))
	}

	if future {
		lines = append(lines, fmt.Sprintf("Removes %d later pending occurrence(s).", impact.LaterRecurrences))
	} else if impact.LaterRecurrences > 0 {
		lines = append(lines, fmt.Sprintf("%d later occurrence(s) are kept.", impact.LaterRecurrences))
	}

	if impact.HasPayment {
		lines = append(lines, "The payment transaction stays on the ledger.")
	}

	return strings.Join(lines, "\n")
}

func (m BillsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading bills...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	tabs := make([]string, len(billTabs))
	for i, t := range billTabs {
		tabs[i] = string(t)
		if i == m.tabIdx {
			tabs[i] = activeStyle(tabs[i])
		}
	}

	header := fmt.Sprintf("[t] Tab: %s", strings.Join(tabs, " | "))

	if m.live {
		header += faintStyle.Render(fmt.Sprintf(
			"   overdue %d · today %d · upcoming %d",
			len(m.summary.Overdue), len(m.summary.DueToday), len(m.summary.Upcoming),
		))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state != billsStateBrowse && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(54).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *BillsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.rows))

	var prev civil.Date

	for _, b := range m.rows {
		due := ""
		if b.DueDate != prev {
			due = FormatDate(b.DueDate)
			prev = b.DueDate
		}

		rows = append(rows, table.Row{
			due,
			b.Description,
			FormatAmount(b.Amount),
			seriesLabel(b),
		})
	}

	m.table.SetRows(rows)
}

func seriesLabel(b *bill.Bill) string {
	if i, ok := b.Installment(); ok {
		return fmt.Sprintf("%d/%d", i.Current, i.Total)
	}

	if r, ok := b.Recurring(); ok {
		return string(r.Type)
	}

	return ""
}

func describeError(err error) string {
	var (
		verr    *bill.ValidationError
		partial *bill.PartialFailureError
	)

	switch {
	case errors.As(err, &verr):
		return fmt.Sprintf("Rejected: %s is %s", verr.Field, verr.Reason)
	case errors.As(err, &partial):
		return fmt.Sprintf("Error: %v (completed steps were kept)", partial)
	}

	return fmt.Sprintf("Error: %v", err)
}

// Forms

const (
	kindSingle       = "single"
	kindInstallments = "installments"
	kindRecurring    = "recurring"
)

// billForm holds the create form bindings. It is allocated once per form so
// huh keeps valid pointers while the model is copied.
type billForm struct {
	Description  string
	Amount       string
	DueDate      string
	CategoryID   uuid.UUID
	Kind         string
	Paid         bool
	Installments string
	Recurrence   bill.RecurrenceType
	EndDate      string
}

func (f *billForm) draft() (bill.Draft, error) {
	d := bill.Draft{
		Description: strings.TrimSpace(f.Description),
		CategoryID:  f.CategoryID,
		Kind:        bill.Plain{},
		Paid:        f.Paid,
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(f.Amount))
	if err != nil {
		return d, fmt.Errorf("parsing amount: %w", err)
	}

	d.Amount = amount

	if d.DueDate, err = calendar.Parse(f.DueDate); err != nil {
		return d, err
	}

	switch f.Kind {
	case kindInstallments:
		n, err := strconv.Atoi(strings.TrimSpace(f.Installments))
		if err != nil {
			return d, fmt.Errorf("parsing installments: %w", err)
		}

		d.Kind = bill.Installment{Total: n}
	case kindRecurring:
		rec := bill.Recurring{Type: f.Recurrence}

		if strings.TrimSpace(f.EndDate) != "" {
			end, err := calendar.Parse(f.EndDate)
			if err != nil {
				return d, err
			}

			rec.EndDate = &end
		}

		d.Kind = rec
	}

	return d, nil
}

type payForm struct {
	bill      *bill.Bill
	AccountID uuid.UUID
}

type deleteForm struct {
	impact    *bill.Impact
	future    bool
	confirmed bool
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}

		return nil
	}
}

func validAmount(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a number")
	}

	if !d.IsPositive() {
		return fmt.Errorf("must be greater than zero")
	}

	return nil
}

func validDate(s string) error {
	if _, err := calendar.Parse(s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}

	return nil
}

func validInstallments(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 2 {
		return fmt.Errorf("must be a whole number of at least 2")
	}

	return nil
}

func optional(validate func(string) error) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}

		return validate(s)
	}
}

// Messages

type loadBoardMsg struct {
	rows []*bill.Bill
	err  error
}

func (m BillsModel) loadBoardCmd() tea.Cmd {
	filter := bill.BoardFilter{Tab: m.tab(), Today: m.today()}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		groups, err := m.bills.Board(ctx, filter)
		if err != nil {
			return loadBoardMsg{err: err}
		}

		var rows []*bill.Bill
		for _, g := range groups {
			rows = append(rows, g.Bills...)
		}

		return loadBoardMsg{rows: rows}
	}
}

type loadRefsMsg struct {
	categories []*category.Category
	accounts   []*account.Account
	err        error
}

func (m BillsModel) loadRefsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		cats, err := m.categories.List(ctx)
		if err != nil {
			return loadRefsMsg{err: err}
		}

		accs, err := m.accounts.List(ctx)
		if err != nil {
			return loadRefsMsg{err: err}
		}

		return loadRefsMsg{categories: cats, accounts: accs}
	}
}

type impactMsg struct {
	impact *bill.Impact
	future bool
	err    error
}

func (m BillsModel) impactCmd(future bool) tea.Cmd {
	b := m.selected()
	if b == nil {
		return nil
	}

	if future && !b.IsRecurring() {
		return func() tea.Msg {
			return impactMsg{err: fmt.Errorf("%s does not repeat", b.Description)}
		}
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		impact, err := m.bills.Impact(ctx, b.ID)

		return impactMsg{impact: impact, future: future, err: err}
	}
}

type billActionMsg struct {
	status string
	refs   bool
	err    error
}

func (m BillsModel) createCmd() tea.Cmd {
	f := m.create

	return func() tea.Msg {
		d, err := f.draft()
		if err != nil {
			return billActionMsg{err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		res, err := m.bills.Create(ctx, d)
		if err != nil {
			return billActionMsg{err: err}
		}

		return billActionMsg{status: fmt.Sprintf("Created %d bill(s).", len(res.Bills)), refs: d.Paid}
	}
}

func (m BillsModel) payCmd() tea.Cmd {
	p := m.pay

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		res, err := m.bills.Pay(ctx, p.bill.ID, p.AccountID)
		if err != nil {
			return billActionMsg{err: err, refs: true}
		}

		status := fmt.Sprintf("Paid %s. Balance %s.", res.Bill.Description, FormatAmount(res.Balance))
		if res.Next != nil {
			status += fmt.Sprintf(" Next due %s.", FormatDate(res.Next.DueDate))
		}

		return billActionMsg{status: status, refs: true}
	}
}

func (m BillsModel) deleteCmd() tea.Cmd {
	d := m.deletion

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var (
			res *bill.DeleteResult
			err error
		)

		if d.future {
			res, err = m.bills.DeleteFutureRecurrences(ctx, d.impact.Bill.ID)
		} else {
			res, err = m.bills.Delete(ctx, d.impact.Bill.ID)
		}

		if err != nil {
			return billActionMsg{err: err}
		}

		return billActionMsg{status: fmt.Sprintf("Deleted %d bill(s).", len(res.Deleted))}
	}
}
