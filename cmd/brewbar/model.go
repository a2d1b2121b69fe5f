package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	brewsvc "github.com/axondata/go-brewsvc"
)

// controller is the part of the engine the model drives
type controller interface {
	SurfaceOpened()
	SurfaceClosed()
	RowClicked(service string)
	RestartClicked(service string)
	StartAll()
	StopAll()
	RestartAll()
	Refresh()
	Quit()
}

var (
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	disabledStyle = lipgloss.NewStyle().Faint(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F8F8F2")).Background(lipgloss.Color("#44475A"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	alertStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5555"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#BD93F9"))
	menuStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#44475A")).Padding(0, 1)
)

const separatorWidth = 24

type model struct {
	ctl     controller
	surface *termSurface
	spinner spinner.Model

	open     bool
	rows     []brewsvc.Row
	selected brewsvc.RowKey
	alert    string
}

func newModel(ctl controller, surface *termSurface) model {
	return model{
		ctl:     ctl,
		surface: surface,
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		open:    true,
	}
}

func (m model) Init() tea.Cmd {
	m.ctl.SurfaceOpened()
	return tea.Batch(m.surface.waitForChange(), m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case rowsChangedMsg:
		m.rows, m.alert = m.surface.snapshot()
		m.selected = m.clampSelection()
		return m, m.surface.waitForChange()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.alert != "" {
			m.surface.clearAlert()
			m.alert = ""
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c":
		m.ctl.Quit()
		return m, tea.Quit
	case "tab":
		m.open = !m.open
		if m.open {
			m.ctl.SurfaceOpened()
		} else {
			m.ctl.SurfaceClosed()
		}
		return m, nil
	}

	if !m.open {
		return m, nil
	}

	switch key {
	case "up", "k":
		m.selected = m.move(-1)
	case "down", "j":
		m.selected = m.move(1)
	case "enter", " ":
		return m.activate(m.selected)
	case "alt+enter", "R":
		if m.selected.Kind == brewsvc.RowService {
			return m.activate(brewsvc.RowKey{Kind: brewsvc.RowRestart, Service: m.selected.Service})
		}
	case "ctrl+r":
		m.ctl.Refresh()
	default:
		for _, r := range m.rows {
			if r.Shortcut != "" && r.Shortcut == key && r.Enabled {
				return m.activate(r.Key)
			}
		}
	}
	return m, nil
}

// activate performs the action of the row with key, if it is enabled
func (m model) activate(key brewsvc.RowKey) (tea.Model, tea.Cmd) {
	row, ok := m.row(key)
	if !ok || !row.Enabled {
		return m, nil
	}
	switch key.Kind {
	case brewsvc.RowService:
		m.ctl.RowClicked(key.Service)
	case brewsvc.RowRestart:
		m.ctl.RestartClicked(key.Service)
	case brewsvc.RowStartAll:
		m.ctl.StartAll()
	case brewsvc.RowStopAll:
		m.ctl.StopAll()
	case brewsvc.RowRestartAll:
		m.ctl.RestartAll()
	case brewsvc.RowQuit:
		m.ctl.Quit()
		return m, tea.Quit
	}
	return m, nil
}

func (m model) row(key brewsvc.RowKey) (brewsvc.Row, bool) {
	for _, r := range m.rows {
		if r.Key == key {
			return r, true
		}
	}
	return brewsvc.Row{}, false
}

// selectable rows are the visible, non-separator ones
func selectable(r brewsvc.Row) bool {
	if r.Alternate {
		return false
	}
	return r.Key.Kind != brewsvc.RowBulkSeparator && r.Key.Kind != brewsvc.RowQuitSeparator
}

func (m model) visible() []brewsvc.Row {
	out := make([]brewsvc.Row, 0, len(m.rows))
	for _, r := range m.rows {
		if selectable(r) {
			out = append(out, r)
		}
	}
	return out
}

func (m model) move(delta int) brewsvc.RowKey {
	rows := m.visible()
	if len(rows) == 0 {
		return brewsvc.RowKey{}
	}
	idx := 0
	for i, r := range rows {
		if r.Key == m.selected {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(rows)) % len(rows)
	return rows[idx].Key
}

// clampSelection keeps the selected key when it survives a rebuild
func (m model) clampSelection() brewsvc.RowKey {
	rows := m.visible()
	if len(rows) == 0 {
		return brewsvc.RowKey{}
	}
	for _, r := range rows {
		if r.Key == m.selected {
			return m.selected
		}
	}
	return rows[0].Key
}

func (m model) View() string {
	if !m.open {
		return m.statusLine() + "\n" + hintStyle.Render("tab: open menu  ctrl+c: quit") + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("brew services"))
	b.WriteString("\n")
	for _, r := range m.rows {
		if r.Alternate {
			continue
		}
		b.WriteString(m.renderRow(r))
		b.WriteString("\n")
	}

	out := menuStyle.Render(strings.TrimSuffix(b.String(), "\n")) + "\n"
	if m.alert != "" {
		out += alertStyle.Render(m.alert) + "\n"
	}
	out += hintStyle.Render("enter: toggle  R: restart  s/x/r: all  tab: close  q: quit") + "\n"
	return out
}

func (m model) renderRow(r brewsvc.Row) string {
	switch r.Key.Kind {
	case brewsvc.RowBulkSeparator, brewsvc.RowQuitSeparator:
		return hintStyle.Render(strings.Repeat("─", separatorWidth))
	}

	marker := "  "
	if r.Key.Kind == brewsvc.RowService {
		marker = colorStyle(r.Color).Render("●") + " "
	}
	if r.Loading {
		marker = m.spinner.View() + " "
	}

	title := r.Title
	if r.Shortcut != "" {
		title = fmt.Sprintf("%-*s %s", separatorWidth-6, title, hintStyle.Render(r.Shortcut))
	}

	line := marker + title
	switch {
	case r.Key == m.selected:
		return selectedStyle.Render(line)
	case !r.Enabled:
		return disabledStyle.Render(line)
	default:
		return line
	}
}

func (m model) statusLine() string {
	var started, total int
	for _, r := range m.rows {
		if r.Key.Kind != brewsvc.RowService {
			continue
		}
		total++
		if r.Color == brewsvc.ColorActive {
			started++
		}
	}
	line := titleStyle.Render("brewbar") + fmt.Sprintf(" %d/%d services running", started, total)
	if m.alert != "" {
		line += "  " + alertStyle.Render(m.alert)
	}
	return line
}

func colorStyle(c brewsvc.Color) lipgloss.Style {
	switch c {
	case brewsvc.ColorActive:
		return activeStyle
	case brewsvc.ColorWarning:
		return warningStyle
	default:
		return inactiveStyle
	}
}
