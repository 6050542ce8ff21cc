package tui

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asynkron/hunkstage/pkg/patch"
)

func sampleDocument() patch.Document {
	return patch.Document{Path: "notes.txt", Hunks: []patch.UpdateHunk{
		{OldLine: 2, OldLines: []string{"line 2\n"}, NewLines: []string{"new line 2\n"}},
		{OldLine: 4, NewLines: []string{"inserted\n"}},
		{OldLine: 5, OldLines: []string{"line 5\n"}},
	}}
}

func press(t *testing.T, m *selectorModel, msgs ...tea.KeyMsg) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		require.Same(t, m, next)
	}
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSelectorStartsWithEverythingSelected(t *testing.T) {
	m := newSelectorModel(sampleDocument())
	assert.Equal(t, []bool{true, true, true}, m.keep)
	assert.Contains(t, m.View(), "3 of 3 records selected")
}

func TestSelectorToggleAndNavigate(t *testing.T) {
	m := newSelectorModel(sampleDocument())

	press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, []bool{false, true, true}, m.keep)

	press(t, m, tea.KeyMsg{Type: tea.KeyDown}, runes("j"), runes("j"), runes("x"))
	assert.Equal(t, 2, m.cursor)
	assert.Equal(t, []bool{false, true, false}, m.keep)

	press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.cursor)
	assert.Contains(t, m.vp.View(), "+inserted")

	press(t, m, runes("n"))
	assert.Equal(t, []bool{false, false, false}, m.keep)
	press(t, m, runes("a"))
	assert.Equal(t, []bool{true, true, true}, m.keep)
}

func TestSelectorConfirmAndQuit(t *testing.T) {
	m := newSelectorModel(sampleDocument())
	cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.confirmed)

	m = newSelectorModel(sampleDocument())
	press(t, m, runes("q"))
	assert.True(t, m.aborted)
}

func TestSelectorEmptyDocument(t *testing.T) {
	m := newSelectorModel(patch.Document{Path: "notes.txt"})
	press(t, m, tea.KeyMsg{Type: tea.KeySpace}, tea.KeyMsg{Type: tea.KeyDown})
	assert.Contains(t, m.View(), "0 of 0 records selected")
	assert.Contains(t, m.View(), "no changes")
}

func TestSelectorResize(t *testing.T) {
	m := newSelectorModel(sampleDocument())
	_, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 96, m.vp.Width)
	assert.Equal(t, 21, m.vp.Height)
}

func TestDescribeRecord(t *testing.T) {
	t.Parallel()

	got := describeRecord(patch.UpdateHunk{OldLine: 12, OldLines: []string{"a\n"}, NewLines: []string{"  b  \n"}})
	assert.Equal(t, "line 12    -1 +1  b", got)

	long := strings.Repeat("x", 80) + "\n"
	got = describeRecord(patch.UpdateHunk{OldLine: 1, NewLines: []string{long}})
	assert.True(t, strings.HasSuffix(got, "..."))

	wide := strings.Repeat("é", 60) + "\n"
	got = describeRecord(patch.UpdateHunk{OldLine: 1, NewLines: []string{wide}})
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, strings.Repeat("é", 47)+"..."))
}

func TestRenderPatchPlainPassesThrough(t *testing.T) {
	t.Parallel()

	text := "diff --git a/f b/f\n--- a/f\n+++ b/f\n@@ -1 +1 @@\n-a\n+b\n"
	out, err := RenderPatch(text, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, text, out)
}

func TestRenderPatchWithColor(t *testing.T) {
	text := "diff --git a/f b/f\n--- a/f\n+++ b/f\n@@ -1 +1 @@\n-alpha\n+beta\n"
	out, err := RenderPatch(text, RenderOptions{Color: true, Width: 80})
	require.NoError(t, err)
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "beta")
}

func TestColorProfileModes(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, termenv.TrueColor, ColorProfile("always", &buf))
	assert.Equal(t, termenv.Ascii, ColorProfile("never", &buf))
	assert.Equal(t, termenv.Ascii, ColorProfile("auto", &buf))
}
