// Package tui holds the interactive pieces of hunkstage: a Bubble Tea
// selector for the records of an updates document, and a styled patch
// preview.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/asynkron/hunkstage/pkg/patch"
)

// ErrAborted is returned by Select when the user quits without confirming.
var ErrAborted = errors.New("selection aborted")

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	All     key.Binding
	None    key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		All:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all")),
		None:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "none")),
		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.All, k.None, k.Confirm, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type selectorModel struct {
	doc    patch.Document
	keep   []bool
	cursor int

	keys keyMap
	help help.Model
	vp   viewport.Model

	width  int
	height int

	confirmed bool
	aborted   bool

	titleStyle   lipgloss.Style
	cursorStyle  lipgloss.Style
	dimStyle     lipgloss.Style
	removedStyle lipgloss.Style
	addedStyle   lipgloss.Style
	detailStyle  lipgloss.Style
}

func newSelectorModel(doc patch.Document) *selectorModel {
	keep := make([]bool, len(doc.Hunks))
	for i := range keep {
		keep[i] = true
	}
	m := &selectorModel{
		doc:          doc,
		keep:         keep,
		keys:         defaultKeyMap(),
		help:         help.New(),
		vp:           viewport.New(80, 10),
		width:        80,
		height:       24,
		titleStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		cursorStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("129")).Bold(true),
		dimStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		removedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		addedStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		detailStyle:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("129")).PaddingLeft(1).PaddingRight(1),
	}
	m.refreshDetail()
	return m
}

func (m *selectorModel) Init() tea.Cmd { return nil }

func (m *selectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.aborted = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Confirm):
			m.confirmed = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.refreshDetail()
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.keep)-1 {
				m.cursor++
				m.refreshDetail()
			}
		case key.Matches(msg, m.keys.Toggle):
			if len(m.keep) > 0 {
				m.keep[m.cursor] = !m.keep[m.cursor]
			}
		case key.Matches(msg, m.keys.All):
			m.setAll(true)
		case key.Matches(msg, m.keys.None):
			m.setAll(false)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m *selectorModel) setAll(v bool) {
	for i := range m.keep {
		m.keep[i] = v
	}
}

// recalcLayout gives the detail pane whatever the list, header and help
// lines leave over.
func (m *selectorModel) recalcLayout() {
	listHeight := len(m.doc.Hunks) + 2
	detail := m.height - listHeight - 4
	if detail < 3 {
		detail = 3
	}
	width := m.width - 4
	if width < 10 {
		width = 10
	}
	m.vp.Width = width
	m.vp.Height = detail
	m.refreshDetail()
}

func (m *selectorModel) refreshDetail() {
	if len(m.doc.Hunks) == 0 {
		m.vp.SetContent(m.dimStyle.Render("no changes"))
		return
	}
	h := m.doc.Hunks[m.cursor]
	var b strings.Builder
	for _, line := range h.OldLines {
		b.WriteString(m.removedStyle.Render("-" + strings.TrimRight(line, "\r\n")))
		b.WriteString("\n")
	}
	for _, line := range h.NewLines {
		b.WriteString(m.addedStyle.Render("+" + strings.TrimRight(line, "\r\n")))
		b.WriteString("\n")
	}
	m.vp.SetContent(strings.TrimSuffix(b.String(), "\n"))
	m.vp.GotoTop()
}

func (m *selectorModel) selectedCount() int {
	n := 0
	for _, k := range m.keep {
		if k {
			n++
		}
	}
	return n
}

func (m *selectorModel) View() string {
	var b strings.Builder
	b.WriteString(m.titleStyle.Render(fmt.Sprintf("%s: %d of %d records selected", m.doc.Path, m.selectedCount(), len(m.keep))))
	b.WriteString("\n\n")

	for i, h := range m.doc.Hunks {
		pointer := "  "
		if i == m.cursor {
			pointer = m.cursorStyle.Render("> ")
		}
		box := "[ ]"
		if m.keep[i] {
			box = "[x]"
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", pointer, box, describeRecord(h)))
	}

	b.WriteString("\n")
	b.WriteString(m.detailStyle.Render(m.vp.View()))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// describeRecord summarizes a record on one line: its base line, the line
// counts it removes and adds, and the first changed line.
func describeRecord(h patch.UpdateHunk) string {
	summary := fmt.Sprintf("line %-5d -%d +%d", h.OldLine, len(h.OldLines), len(h.NewLines))
	first := ""
	switch {
	case len(h.NewLines) > 0:
		first = h.NewLines[0]
	case len(h.OldLines) > 0:
		first = h.OldLines[0]
	}
	first = strings.TrimSpace(first)
	if runes := []rune(first); len(runes) > 50 {
		first = string(runes[:47]) + "..."
	}
	if first == "" {
		return summary
	}
	return summary + "  " + first
}

// SelectOptions configures Select.
type SelectOptions struct {
	Input     io.Reader
	Output    io.Writer
	AltScreen bool
}

// Select lets the user choose which records of doc to keep. The returned
// slice has one entry per record. ErrAborted is returned when the user
// quits without confirming.
func Select(ctx context.Context, doc patch.Document, opts SelectOptions) ([]bool, error) {
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}
	if opts.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	final, err := tea.NewProgram(newSelectorModel(doc), programOpts...).Run()
	if err != nil {
		return nil, fmt.Errorf("selector: %w", err)
	}
	m, ok := final.(*selectorModel)
	if !ok || m.aborted || !m.confirmed {
		return nil, ErrAborted
	}
	return append([]bool(nil), m.keep...), nil
}
