package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/chazu/dunder/snapshot"
	"github.com/chazu/dunder/vm"
)

var (
	accentColor    = lipgloss.Color("#3B82F6")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#F59E0B")

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	arrowStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	addedStyle = lipgloss.NewStyle().
			Foreground(successColor)

	removedStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

// stateStyles colors slot states.
var stateStyles = map[string]lipgloss.Style{
	"native":  lipgloss.NewStyle().Foreground(successColor),
	"generic": lipgloss.NewStyle().Foreground(accentColor),
	"poison":  lipgloss.NewStyle().Foreground(errorColor),
	"nonext":  lipgloss.NewStyle().Foreground(mutedColor),
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(mutedColor)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderMRO(c *vm.Class) string {
	names := c.MRONames()
	parts := make([]string, len(names))
	for i, n := range names {
		if i == 0 {
			parts[i] = headerStyle.UnsetPadding().Render(n)
		} else {
			parts[i] = n
		}
	}
	return strings.Join(parts, arrowStyle.Render(" → "))
}

func renderSlots(r snapshot.ClassRecord) string {
	t := newTable("slot", "state", "implementation")
	for id := vm.SlotID(0); id < vm.NumSlots; id++ {
		state, impl := snapshot.StateAbsent, ""
		for _, sr := range r.Slots {
			if sr.Slot == id.String() {
				state, impl = sr.State, sr.Impl
			}
		}
		t.Row(id.String(), styleState(state), impl)
	}
	return headerStyle.UnsetPadding().Render(r.Name) + "\n" + t.String()
}

func styleState(state string) string {
	if st, ok := stateStyles[state]; ok {
		return st.Render(state)
	}
	return mutedStyle.Render(state)
}

func renderClasses(snap *snapshot.Snapshot) string {
	if len(snap.Classes) == 0 {
		return mutedStyle.Render("no classes declared")
	}
	t := newTable("class", "metaclass", "mro", "solid base", "layout")
	for _, r := range snap.Classes {
		t.Row(r.Name, r.Meta, strings.Join(r.MRO, " → "), r.SolidBase, layoutSummary(r))
	}
	return t.String()
}

func layoutSummary(r snapshot.ClassRecord) string {
	s := fmt.Sprintf("%s/%d", r.Basis, r.NumFields)
	if len(r.Members) > 0 {
		s += " +" + strings.Join(r.Members, ",")
	}
	if r.HasDict {
		s += " dict"
	}
	return s
}

func renderEntries(entries []snapshot.Entry) string {
	if len(entries) == 0 {
		return mutedStyle.Render("no snapshots")
	}
	t := newTable("label", "key", "classes", "created")
	for _, e := range entries {
		t.Row(e.Label, e.Key, fmt.Sprint(e.Classes), e.Created.Format("2006-01-02 15:04:05"))
	}
	return t.String()
}

func renderChanges(changes []snapshot.Change) string {
	t := newTable("class", "field", "old", "new")
	for _, c := range changes {
		t.Row(c.Class, c.Field, removedStyle.Render(c.Old), addedStyle.Render(c.New))
	}
	return t.String()
}
