package view

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/finny/internal/calendar"
)

// TimeframeSelectedMsg is emitted when the user has selected a valid date range.
// From and To are zero values when All is true.
type TimeframeSelectedMsg struct {
	From civil.Date
	To   civil.Date
	All  bool
}

type timeframeState int

const (
	timeframeStateSelect timeframeState = iota
	timeframeStateCustom
)

// TimeframePicker is a reusable component for selecting a date range.
type TimeframePicker struct {
	state    timeframeState
	selected Timeframe
	minFrame Timeframe
	today    func() civil.Date

	startInput textinput.Model
	endInput   textinput.Model
	focusIndex int

	err error
}

// NewTimeframePicker creates a picker starting from the given minimum timeframe.
func NewTimeframePicker(minFrame Timeframe, today func() civil.Date) TimeframePicker {
	si := textinput.New()
	si.Placeholder = "YYYY-MM-DD"
	si.CharLimit = 10
	si.Width = 12
	si.Prompt = "Start Date: "

	ei := textinput.New()
	ei.Placeholder = "YYYY-MM-DD"
	ei.CharLimit = 10
	ei.Width = 12
	ei.Prompt = "End Date:   "

	if today == nil {
		today = func() civil.Date { return calendar.Today(time.Local) }
	}

	return TimeframePicker{
		state:      timeframeStateSelect,
		selected:   minFrame,
		minFrame:   minFrame,
		today:      today,
		startInput: si,
		endInput:   ei,
	}
}

// Init returns the initial command for the picker.
func (m TimeframePicker) Init() tea.Cmd {
	return nil
}

// Update handles messages for the timeframe picker.
func (m TimeframePicker) Update(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case timeframeStateSelect:
			return m.updateSelect(msg)
		case timeframeStateCustom:
			if next, cmd, handled := m.updateCustom(msg); handled {
				return next, cmd
			}
		}
	}

	if m.state == timeframeStateCustom {
		return m.updateInputs(msg)
	}

	return m, nil
}

func (m TimeframePicker) updateSelect(msg tea.KeyMsg) (TimeframePicker, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.selected > m.minFrame {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < TimeframeCustom {
			m.selected++
		}
	case tea.KeyEnter:
		switch m.selected {
		case TimeframeCustom:
			m.state = timeframeStateCustom
			m.startInput.Focus()
			m.focusIndex = 0

			return m, textinput.Blink
		case TimeframeAll:
			return m, func() tea.Msg {
				return TimeframeSelectedMsg{All: true}
			}
		}

		from, to := timeframeRange(m.selected, m.today())

		return m, func() tea.Msg {
			return TimeframeSelectedMsg{From: from, To: to}
		}
	}

	return m, nil
}

func (m TimeframePicker) updateCustom(msg tea.KeyMsg) (TimeframePicker, tea.Cmd, bool) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.focusIndex = (m.focusIndex + 1) % 2
		m.startInput.Blur()
		m.endInput.Blur()

		if m.focusIndex == 0 {
			m.startInput.Focus()
		} else {
			m.endInput.Focus()
		}

		return m, textinput.Blink, true

	case "enter":
		from, err := calendar.Parse(m.startInput.Value())
		if err != nil {
			m.err = fmt.Errorf("invalid start date (YYYY-MM-DD)")
			return m, nil, true
		}

		to, err := calendar.Parse(m.endInput.Value())
		if err != nil {
			m.err = fmt.Errorf("invalid end date (YYYY-MM-DD)")
			return m, nil, true
		}

		if to.Before(from) {
			m.err = fmt.Errorf("end date is before start date")
			return m, nil, true
		}

		m.err = nil

		return m, func() tea.Msg {
			return TimeframeSelectedMsg{From: from, To: to}
		}, true

	case "esc":
		m.state = timeframeStateSelect
		m.err = nil

		return m, nil, true
	}

	return m, nil, false
}

func (m TimeframePicker) updateInputs(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	var (
		cmds []tea.Cmd
		c    tea.Cmd
	)

	m.startInput, c = m.startInput.Update(msg)
	cmds = append(cmds, c)
	m.endInput, c = m.endInput.Update(msg)
	cmds = append(cmds, c)

	return m, tea.Batch(cmds...)
}

// View renders the timeframe picker.
func (m TimeframePicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = errorStyle.Render(fmt.Sprintf("\n\nError: %v", m.err))
	}

	if m.state == timeframeStateCustom {
		return fmt.Sprintf(
			"Enter Custom Range:\n\n%s\n%s\n\n(Enter to confirm, Tab to switch, Esc to back)%s",
			m.startInput.View(),
			m.endInput.View(),
			errStr,
		)
	}

	var sb strings.Builder

	sb.WriteString("Select Timeframe:\n\n")

	for i := m.minFrame; i <= TimeframeCustom; i++ {
		cursor := " "
		if m.selected == i {
			cursor = ">"
		}

		fmt.Fprintf(&sb, "%s %s\n", cursor, i.String())
	}

	sb.WriteString("\n(Enter to select, Esc to back)")

	return sb.String() + errStr
}

// IsSelecting returns true if the picker is in the selection state (not custom input).
func (m TimeframePicker) IsSelecting() bool {
	return m.state == timeframeStateSelect
}

// Reset returns the picker to its initial selection state.
func (m *TimeframePicker) Reset() {
	m.state = timeframeStateSelect
	m.selected = m.minFrame
	m.err = nil
	m.startInput.SetValue("")
	m.endInput.SetValue("")
}
