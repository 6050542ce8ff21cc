package patch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeReplacement(t *testing.T) {
	t.Parallel()

	got := Synthesize("f.txt", []string{"a\n", "b\n", "c\n"}, []string{"a\n", "B\n", "c\n"}, DefaultContext)
	want := "diff --git a/f.txt b/f.txt\n" +
		"--- a/f.txt\n" +
		"+++ b/f.txt\n" +
		"@@ -1,3 +1,3 @@\n" +
		" a\n" +
		"-b\n" +
		"+B\n" +
		" c\n"
	assert.Equal(t, want, got)
}

func TestSynthesizeMarksMissingNewline(t *testing.T) {
	t.Parallel()

	got := Synthesize("f.txt", []string{"a\n", "b"}, []string{"a\n", "c"}, DefaultContext)
	assert.Contains(t, got, "@@ -1,2 +1,2 @@\n a\n-b\n\\ No newline at end of file\n+c\n\\ No newline at end of file\n")
}

func TestSynthesizeAddsNewlineAtEnd(t *testing.T) {
	t.Parallel()

	got := Synthesize("f.txt", []string{"a\n", "b"}, []string{"a\n", "b\n"}, DefaultContext)
	assert.Contains(t, got, "-b\n\\ No newline at end of file\n+b\n")
}

func TestSynthesizeIntoEmptyFile(t *testing.T) {
	t.Parallel()

	got := Synthesize("new.txt", nil, []string{"x\n"}, DefaultContext)
	assert.Contains(t, got, "@@ -0,0 +1 @@\n+x\n")
}

func TestSynthesizeSplitsDistantChanges(t *testing.T) {
	t.Parallel()

	base := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		base = append(base, string(rune('a'+i))+"\n")
	}
	updated := append([]string(nil), base...)
	updated[1] = "B\n"
	updated[18] = "S\n"

	got := Synthesize("f.txt", base, updated, 1)
	hunks := ParseUnifiedDiff(got)
	require.Len(t, hunks, 2)
	assert.Equal(t, 1, hunks[0].OldStart)
	assert.Equal(t, 3, hunks[0].OldCount)
	assert.Equal(t, 18, hunks[1].OldStart)
}

func TestSynthesizeIdenticalIsEmpty(t *testing.T) {
	t.Parallel()

	lines := []string{"a\n", "b"}
	assert.Empty(t, Synthesize("f.txt", lines, lines, DefaultContext))
	assert.Empty(t, Synthesize("f.txt", nil, nil, DefaultContext))
}

func TestLineDifferUsesDefaultContext(t *testing.T) {
	t.Parallel()

	base := []string{"1\n", "2\n", "3\n", "4\n", "5\n", "6\n", "7\n"}
	updated := append([]string(nil), base...)
	updated[3] = "four\n"

	got, err := LineDiffer{}.Diff(context.Background(), "f.txt", base, updated)
	require.NoError(t, err)
	assert.Contains(t, got, "@@ -1,7 +1,7 @@\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = LineDiffer{}.Diff(ctx, "f.txt", base, updated)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatRange(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "3", formatRange(2, 3))
	assert.Equal(t, "2,0", formatRange(2, 2))
	assert.Equal(t, "1,4", formatRange(0, 4))
}
