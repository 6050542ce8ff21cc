package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitChangeGroupsTracksBaseLines(t *testing.T) {
	t.Parallel()

	hunks := ParseUnifiedDiff(twoGroupDiff)
	require.Len(t, hunks, 1)

	groups := SplitChangeGroups(hunks[0])
	require.Len(t, groups, 2)
	assert.Equal(t, 2, groups[0].OldLine)
	assert.Equal(t, []string{"line 2\n"}, groups[0].OldLines)
	assert.Equal(t, []string{"new line 2\n"}, groups[0].NewLines)
	assert.Equal(t, 4, groups[1].OldLine)
	assert.Equal(t, []string{"line 4\n"}, groups[1].OldLines)
	assert.Equal(t, []string{"line 4 changed\n"}, groups[1].NewLines)
}

func TestSplitChangeGroupsPureInsertion(t *testing.T) {
	t.Parallel()

	hunks := ParseUnifiedDiff("@@ -1,2 +1,4 @@\n a\n+x\n+y\n b\n")
	require.Len(t, hunks, 1)

	groups := SplitChangeGroups(hunks[0])
	require.Len(t, groups, 1)
	g := groups[0]
	assert.True(t, g.IsInsertion())
	assert.Equal(t, 0, g.OldLine)
	assert.Equal(t, 2, g.Anchor)
	assert.Equal(t, []string{"x\n", "y\n"}, g.NewLines)

	anchored := AnchorInsertions(groups)
	assert.Equal(t, 2, anchored[0].OldLine)
	assert.Equal(t, 0, groups[0].OldLine, "input must not be modified")
}

func TestSplitChangeGroupsNoNewlineMarker(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		diff     string
		oldLines []string
		newLines []string
	}{
		{
			name:     "both sides unterminated",
			diff:     "@@ -1,2 +1,2 @@\n a\n-b\n\\ No newline at end of file\n+c\n\\ No newline at end of file\n",
			oldLines: []string{"b"},
			newLines: []string{"c"},
		},
		{
			name:     "newline added",
			diff:     "@@ -1,2 +1,2 @@\n a\n-b\n\\ No newline at end of file\n+b\n",
			oldLines: []string{"b"},
			newLines: []string{"b\n"},
		},
		{
			name:     "newline dropped",
			diff:     "@@ -1,2 +1,2 @@\n a\n-b\n+b\n\\ No newline at end of file\n",
			oldLines: []string{"b\n"},
			newLines: []string{"b"},
		},
		{
			name:     "unchanged unterminated context",
			diff:     "@@ -1,2 +1,2 @@\n-a\n+A\n b\n\\ No newline at end of file\n",
			oldLines: []string{"a\n"},
			newLines: []string{"A\n"},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			hunks := ParseUnifiedDiff(tc.diff)
			require.Len(t, hunks, 1)
			groups := SplitChangeGroups(hunks[0])
			require.Len(t, groups, 1)
			assert.Equal(t, tc.oldLines, groups[0].OldLines)
			assert.Equal(t, tc.newLines, groups[0].NewLines)
		})
	}
}

func TestSplitChangeGroupsAdditionBeforeRemoval(t *testing.T) {
	t.Parallel()

	hunks := ParseUnifiedDiff("@@ -4,3 +4,3 @@\n d\n+E\n-e\n f\n")
	require.Len(t, hunks, 1)

	groups := SplitChangeGroups(hunks[0])
	require.Len(t, groups, 1)
	assert.Equal(t, 5, groups[0].OldLine)
	assert.Equal(t, []string{"e\n"}, groups[0].OldLines)
	assert.Equal(t, []string{"E\n"}, groups[0].NewLines)
}

func TestSplitChangeGroupsDeletionAndTrailingGroup(t *testing.T) {
	t.Parallel()

	hunks := ParseUnifiedDiff("@@ -1,4 +1,2 @@\n a\n-b\n c\n-d\n")
	require.Len(t, hunks, 1)

	groups := SplitChangeGroups(hunks[0])
	require.Len(t, groups, 2)
	assert.True(t, groups[0].IsDeletion())
	assert.Equal(t, 2, groups[0].OldLine)
	assert.Equal(t, 4, groups[1].OldLine)
	assert.Equal(t, []string{"d\n"}, groups[1].OldLines)
}

// Concatenating the groups' old and new sides in order must reproduce the
// removed and added lines of the hunk in order.
func TestSplitChangeGroupsPreservesChangedLines(t *testing.T) {
	t.Parallel()

	diff := "@@ -1,7 +1,8 @@\n a\n-b\n+B\n+B2\n c\n d\n-e\n-f\n+F\n g\n+h\n"
	hunks := ParseUnifiedDiff(diff)
	require.Len(t, hunks, 1)

	var removed, added []string
	for _, line := range hunks[0].Lines {
		switch line.Kind {
		case LineRemoved:
			removed = append(removed, line.Content())
		case LineAdded:
			added = append(added, line.Content())
		}
	}

	var oldSide, newSide []string
	for _, g := range SplitChangeGroups(hunks[0]) {
		oldSide = append(oldSide, g.OldLines...)
		newSide = append(newSide, g.NewLines...)
	}
	assert.Equal(t, removed, oldSide)
	assert.Equal(t, added, newSide)
}

func TestGroupAllFlattensHunks(t *testing.T) {
	t.Parallel()

	diff := "@@ -1,2 +1,2 @@\n-a\n+A\n b\n@@ -10,2 +10,2 @@\n j\n-k\n+K\n"
	groups := GroupAll(ParseUnifiedDiff(diff))
	require.Len(t, groups, 2)
	assert.Equal(t, 1, groups[0].OldLine)
	assert.Equal(t, 11, groups[1].OldLine)
}
