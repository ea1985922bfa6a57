package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

const shapesManifest = `
[project]
name = "shapes"

[[class]]
name = "Shape"
methods = { __repr__ = "const:<shape>" }

[[class]]
name = "Square"
bases = ["Shape"]
slots = ["side"]
`

func writeShapes(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "dunder.toml"), []byte(shapesManifest), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func runCLI(t *testing.T, dir string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := run(&out, dir, false, args); err != nil {
		t.Fatalf("dunder %v: %v", args, err)
	}
	return out.String()
}

// ---------------------------------------------------------------------------
// Command tests
// ---------------------------------------------------------------------------

func TestMROCommand(t *testing.T) {
	dir := writeShapes(t)
	out := runCLI(t, dir, "mro", "Square")
	for _, want := range []string{"Square", "Shape", "object"} {
		if !strings.Contains(out, want) {
			t.Errorf("mro output %q missing %s", out, want)
		}
	}
	if strings.Index(out, "Shape") > strings.Index(out, "object") {
		t.Errorf("mro output %q out of order", out)
	}

	// Built-in classes resolve without a declaration.
	if out := runCLI(t, dir, "mro", "bool"); !strings.Contains(out, "int") {
		t.Errorf("mro bool = %q, want int in the chain", out)
	}
}

func TestSlotsCommand(t *testing.T) {
	out := runCLI(t, writeShapes(t), "slots", "Shape")
	if !strings.Contains(out, "generic") || !strings.Contains(out, "slot_repr") {
		t.Errorf("slots output missing the repr trampoline:\n%s", out)
	}
	if !strings.Contains(out, "object_new") {
		t.Errorf("slots output missing the inherited new slot:\n%s", out)
	}
}

func TestDumpCommand(t *testing.T) {
	out := runCLI(t, writeShapes(t), "dump")
	if !strings.Contains(out, "Square") || !strings.Contains(out, "+side") {
		t.Errorf("dump output:\n%s", out)
	}
}

func TestSaveListDiff(t *testing.T) {
	dir := writeShapes(t)
	db := filepath.Join(t.TempDir(), "snap.db")

	if out := runCLI(t, dir, "save", db, "v1"); !strings.Contains(out, "saved v1") {
		t.Errorf("save output = %q", out)
	}
	if out := runCLI(t, dir, "list", db); !strings.Contains(out, "v1") {
		t.Errorf("list output = %q", out)
	}
	if out := runCLI(t, dir, "diff", db, "v1"); !strings.Contains(out, "no differences") {
		t.Errorf("diff against an unchanged manifest = %q", out)
	}

	changed := strings.Replace(shapesManifest, `slots = ["side"]`, `slots = ["side", "colour"]`, 1)
	if err := os.WriteFile(filepath.Join(dir, "dunder.toml"), []byte(changed), 0644); err != nil {
		t.Fatal(err)
	}
	runCLI(t, dir, "save", db, "v2")
	out := runCLI(t, dir, "diff", db, "v1", "v2")
	if !strings.Contains(out, "members") {
		t.Errorf("diff v1 v2 should report the member change:\n%s", out)
	}
}

func TestCommandErrors(t *testing.T) {
	dir := writeShapes(t)
	var out bytes.Buffer
	tests := [][]string{
		{"launch"},
		{"mro"},
		{"mro", "Circle"},
		{"save", "only-db"},
		{"diff", filepath.Join(t.TempDir(), "empty.db"), "missing"},
	}
	for _, args := range tests {
		if err := run(&out, dir, false, args); err == nil {
			t.Errorf("dunder %v should fail", args)
		}
	}
}

// ---------------------------------------------------------------------------
// Browser model tests
// ---------------------------------------------------------------------------

func TestBrowseModel(t *testing.T) {
	s, err := loadSession(writeShapes(t), false)
	if err != nil {
		t.Fatal(err)
	}
	m := newBrowseModel(s.rt, s.classes)
	if len(m.records()) != 2 {
		t.Fatalf("records = %d, want the 2 declared classes", len(m.records()))
	}

	down := tea.KeyMsg{Type: tea.KeyDown}
	next, _ := m.Update(down)
	m = next.(browseModel)
	next, _ = m.Update(down)
	m = next.(browseModel)
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1 (clamped)", m.cursor)
	}
	if view := m.View(); !strings.Contains(view, "Square") || !strings.Contains(view, "mro") {
		t.Errorf("view missing Square's detail:\n%s", view)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(browseModel)
	if !m.showSlot || !strings.Contains(m.View(), "slot_repr") {
		t.Error("tab should switch to the slot table")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'b'}})
	m = next.(browseModel)
	if len(m.records()) <= 2 {
		t.Error("b should include the built-in classes")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Error("q should quit")
	}
}
