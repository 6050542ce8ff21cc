package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUpdatesExactBytes(t *testing.T) {
	t.Parallel()

	groups := GroupAll(ParseUnifiedDiff(twoGroupDiff))
	got := FormatUpdates("notes.txt", groups)

	want := "file: notes.txt\n" +
		"\n@@old 2\nline 2\n@@new\nnew line 2\n@@end\n" +
		"\n@@old 4\nline 4\n@@new\nline 4 changed\n@@end\n"
	assert.Equal(t, want, got)
}

func TestFormatUpdatesWithoutGroupsIsHeaderOnly(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "file: notes.txt\n", FormatUpdates("notes.txt", nil))
}

func TestFormatUpdatesMarksUnterminatedLines(t *testing.T) {
	t.Parallel()

	doc := Document{Path: "f", Hunks: []UpdateHunk{{OldLine: 2, OldLines: []string{"b"}, NewLines: []string{"b\n", "c"}}}}
	text := FormatDocument(doc)
	assert.Equal(t, "file: f\n\n@@old 2\nb\n\\ No newline at end of file\n@@new\nb\nc\n\\ No newline at end of file\n@@end\n", text)
	assert.Equal(t, doc, ParseUpdates(text))
}

func TestParseUpdatesNoNewlineMarker(t *testing.T) {
	t.Parallel()

	text := "file: f\n\n@@old 2\nb\n@@new\nb\n\\ No newline at end of file\n@@end\n"
	doc := ParseUpdates(text)
	require.Len(t, doc.Hunks, 1)
	assert.Equal(t, []string{"b\n"}, doc.Hunks[0].OldLines)
	assert.Equal(t, []string{"b"}, doc.Hunks[0].NewLines)
}

func TestParseUpdatesRoundTrip(t *testing.T) {
	t.Parallel()

	diff := "@@ -1,7 +1,8 @@\n a\n-b\n+B\n+B2\n c\n d\n-e\n-f\n g\n+h\n+i\n"
	groups := AnchorInsertions(GroupAll(ParseUnifiedDiff(diff)))
	require.Len(t, groups, 3)

	doc := ParseUpdates(FormatUpdates("src/app.go", groups))
	assert.Equal(t, "src/app.go", doc.Path)
	require.Len(t, doc.Hunks, len(groups))
	for i, g := range groups {
		assert.Equal(t, g.UpdateHunk(), doc.Hunks[i], "record %d", i+1)
	}
	assert.True(t, doc.Hunks[1].IsDeletion())
	assert.True(t, doc.Hunks[2].IsInsertion())
}

func TestParseUpdatesKeepsContentVerbatim(t *testing.T) {
	t.Parallel()

	text := "file: win.txt\n\n@@old 3\nold\r\n  indented\n\n@@new\n@@old-looking text\n@@end\n"
	doc := ParseUpdates(text)
	require.Len(t, doc.Hunks, 1)
	assert.Equal(t, 3, doc.Hunks[0].OldLine)
	assert.Equal(t, []string{"old\r\n", "  indented\n", "\n"}, doc.Hunks[0].OldLines)
	assert.Equal(t, []string{"@@old-looking text\n"}, doc.Hunks[0].NewLines)
}

func TestParseUpdatesAfterRecordRemoved(t *testing.T) {
	t.Parallel()

	text := "file: notes.txt\n\n@@old 4\nline 4\n@@new\nline 4 changed\n@@end\n"
	doc := ParseUpdates(text)
	require.Len(t, doc.Hunks, 1)
	assert.Equal(t, UpdateHunk{OldLine: 4, OldLines: []string{"line 4\n"}, NewLines: []string{"line 4 changed\n"}}, doc.Hunks[0])
}

func TestParseUpdatesHeaderOnly(t *testing.T) {
	t.Parallel()

	doc := ParseUpdates("file:   notes.txt  \n")
	assert.Equal(t, "notes.txt", doc.Path)
	assert.True(t, doc.Empty())

	assert.True(t, ParseUpdates("").Empty())
}

func TestParseUpdatesUnclosedRecord(t *testing.T) {
	t.Parallel()

	doc := ParseUpdates("file: f\n\n@@old 1\na\n@@new\nb\n")
	require.Len(t, doc.Hunks, 1)
	assert.Equal(t, []string{"a\n"}, doc.Hunks[0].OldLines)
	assert.Equal(t, []string{"b\n"}, doc.Hunks[0].NewLines)
}

func TestUpdateHunkSpan(t *testing.T) {
	t.Parallel()

	start, end := UpdateHunk{OldLine: 10, OldLines: []string{"a", "b", "c", "d", "e"}}.Span()
	assert.Equal(t, 10, start)
	assert.Equal(t, 14, end)

	start, end = UpdateHunk{OldLine: 5, NewLines: []string{"x"}}.Span()
	assert.Equal(t, 5, start)
	assert.Equal(t, 4, end)
}
