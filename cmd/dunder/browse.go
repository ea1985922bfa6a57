package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chazu/dunder/snapshot"
	"github.com/chazu/dunder/vm"
)

var (
	selectedStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

type browseKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Tab     key.Binding
	Builtin key.Binding
	Quit    key.Binding
}

var browseKeys = browseKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "previous class"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "next class"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "mro/slots"),
	),
	Builtin: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "toggle built-ins"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type browseModel struct {
	declared []snapshot.ClassRecord
	builtins []snapshot.ClassRecord
	cursor   int
	showSlot bool
	showAll  bool
	width    int
	height   int
}

func newBrowseModel(rt *vm.Runtime, classes []*vm.Class) browseModel {
	m := browseModel{declared: snapshot.Take(rt, classes...).Classes}
	for _, r := range snapshot.Take(rt).Classes {
		if !r.Heap {
			m.builtins = append(m.builtins, r)
		}
	}
	if len(m.declared) == 0 {
		m.showAll = true
	}
	return m
}

func (m browseModel) records() []snapshot.ClassRecord {
	if m.showAll {
		return append(append([]snapshot.ClassRecord(nil), m.declared...), m.builtins...)
	}
	return m.declared
}

func (m browseModel) Init() tea.Cmd {
	return tea.EnterAltScreen
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, browseKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, browseKeys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, browseKeys.Down):
			if m.cursor < len(m.records())-1 {
				m.cursor++
			}
		case key.Matches(msg, browseKeys.Tab):
			m.showSlot = !m.showSlot
		case key.Matches(msg, browseKeys.Builtin):
			if len(m.declared) > 0 {
				m.showAll = !m.showAll
				m.cursor = min(m.cursor, len(m.records())-1)
			}
		}
	}
	return m, nil
}

func (m browseModel) View() string {
	records := m.records()
	if len(records) == 0 {
		return mutedStyle.Render("no classes\n")
	}

	var list strings.Builder
	for i, r := range records {
		name := r.Name
		if !r.Heap {
			name = mutedStyle.Render(name)
		}
		if i == m.cursor {
			list.WriteString(selectedStyle.Render("> "+r.Name) + "\n")
		} else {
			list.WriteString("  " + name + "\n")
		}
	}

	detail := m.detail(records[m.cursor])
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Render(strings.TrimRight(list.String(), "\n")),
		paneStyle.Render(detail),
	)

	var help []string
	for _, b := range []key.Binding{browseKeys.Up, browseKeys.Down, browseKeys.Tab, browseKeys.Builtin, browseKeys.Quit} {
		h := b.Help()
		help = append(help, helpKeyStyle.Render(h.Key)+" "+helpDescStyle.Render(h.Desc))
	}
	return headerStyle.Render("dunder browse") + "\n" + body + "\n" + strings.Join(help, "  ") + "\n"
}

func (m browseModel) detail(r snapshot.ClassRecord) string {
	if m.showSlot {
		var b strings.Builder
		for _, sr := range r.Slots {
			fmt.Fprintf(&b, "%-14s %s %s\n", sr.Slot, styleState(sr.State), mutedStyle.Render(sr.Impl))
		}
		return strings.TrimRight(b.String(), "\n")
	}

	lines := []string{
		headerStyle.UnsetPadding().Render(r.Name),
		"metaclass   " + r.Meta,
		"bases       " + strings.Join(r.Bases, ", "),
		"mro         " + strings.Join(r.MRO, arrowStyle.Render(" → ")),
		"best base   " + r.Base,
		"solid base  " + r.SolidBase,
		"layout      " + layoutSummary(r),
	}
	return strings.Join(lines, "\n")
}

func browse(s *session) error {
	p := tea.NewProgram(newBrowseModel(s.rt, s.classes))
	_, err := p.Run()
	return err
}
