package view

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/finny/internal/importer"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateFilePick importState = iota
	importStateImporting
	importStateResult
)

// ImportModel picks a bill sheet and creates one series per row.
type ImportModel struct {
	CommonModel
	importService *importer.Service

	state      importState
	filePicker filepicker.Model

	result *importer.Result
	status string
	err    error
}

func NewImportModel(impSvc *importer.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		importService: impSvc,
		filePicker:    fp,
	}
}

func (m ImportModel) Title() string { return "Import Bills" }

func (m ImportModel) ShortHelp() string {
	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

	case importResultMsg:
		m.state = importStateResult
		m.result = msg.result
		m.err = msg.err

		switch {
		case msg.err != nil:
			m.status = fmt.Sprintf("Error: %v", msg.err)
		default:
			m.status = fmt.Sprintf("Imported %d bill(s), %d row(s) failed.", len(msg.result.Created), len(msg.result.Failed))
		}

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importing from %s...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	if m.state == importStateResult {
		m.state = importStateFilePick
		m.result = nil
		m.err = nil
		m.status = ""

		return m, m.filePicker.Init()
	}

	return m, Back
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select a bill sheet to import:\n\n%s", m.filePicker.View()),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(errorStyle.Render(m.status) + "\n\n(Esc to go back)")
	}

	var sb strings.Builder

	sb.WriteString(successStyle.Render(m.status))

	if len(m.result.Failed) > 0 {
		sb.WriteString("\n\n")

		for _, rowErr := range m.result.Failed {
			sb.WriteString(errorStyle.Render(rowErr.Error()))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n\n(Esc to go back)")

	return style.Render(sb.String())
}

// Messages

type importResultMsg struct {
	result *importer.Result
	err    error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := m.importService.Import(ctx, f)

		return importResultMsg{result: result, err: err}
	}
}
