package patch

import "strings"

// ChangeGroup is a maximal run of removed/added lines inside one hunk with
// no context line between them.
//
// OldLine is the 1-based base line of the first removed line, or 0 for a
// pure insertion. Anchor is the base line the group starts at (for an
// insertion, the line the new lines go in front of) and is always set.
type ChangeGroup struct {
	OldLine  int
	OldLines []string
	NewLines []string
	Anchor   int
}

// IsInsertion reports whether the group only adds lines.
func (g ChangeGroup) IsInsertion() bool { return len(g.OldLines) == 0 }

// IsDeletion reports whether the group only removes lines.
func (g ChangeGroup) IsDeletion() bool { return len(g.NewLines) == 0 }

// UpdateHunk converts the group into an update record.
func (g ChangeGroup) UpdateHunk() UpdateHunk {
	return UpdateHunk{
		OldLine:  g.OldLine,
		OldLines: append([]string(nil), g.OldLines...),
		NewLines: append([]string(nil), g.NewLines...),
	}
}

// SplitChangeGroups walks the hunk with a base-line cursor starting at
// OldStart. Context and removed lines advance the cursor, added lines do
// not, and a context line closes the open group. A no-newline marker strips
// the terminator from the removed or added line right before it, so the
// group records exactly how each side ends.
func SplitChangeGroups(h Hunk) []ChangeGroup {
	var (
		groups  []ChangeGroup
		current ChangeGroup
		open    bool
		prev    = LineContext
	)
	cursor := h.OldStart

	flush := func() {
		if !open {
			return
		}
		if len(current.OldLines) == 0 {
			current.OldLine = 0
		}
		groups = append(groups, current)
		current = ChangeGroup{}
		open = false
	}

	for _, line := range h.Lines {
		switch line.Kind {
		case LineContext:
			flush()
			cursor++
		case LineRemoved:
			if !open {
				current = ChangeGroup{OldLine: cursor, Anchor: cursor}
				open = true
			}
			current.OldLines = append(current.OldLines, line.Content())
			cursor++
		case LineAdded:
			if !open {
				current = ChangeGroup{OldLine: cursor, Anchor: cursor}
				open = true
			}
			current.NewLines = append(current.NewLines, line.Content())
		case LineNoNewline:
			switch {
			case !open:
			case prev == LineRemoved:
				unterminate(current.OldLines)
			case prev == LineAdded:
				unterminate(current.NewLines)
			}
		}
		prev = line.Kind
	}
	flush()
	return groups
}

func unterminate(lines []string) {
	if n := len(lines); n > 0 {
		lines[n-1] = strings.TrimSuffix(lines[n-1], "\n")
	}
}

// GroupAll flattens the change groups of every hunk, dropping hunk
// boundaries.
func GroupAll(hunks []Hunk) []ChangeGroup {
	var groups []ChangeGroup
	for _, h := range hunks {
		groups = append(groups, SplitChangeGroups(h)...)
	}
	return groups
}

// AnchorInsertions returns a copy of groups where every pure insertion takes
// its Anchor as OldLine, so the record can be replayed at the right place.
func AnchorInsertions(groups []ChangeGroup) []ChangeGroup {
	out := make([]ChangeGroup, len(groups))
	for i, g := range groups {
		if g.IsInsertion() && g.OldLine == 0 {
			g.OldLine = g.Anchor
		}
		out[i] = g
	}
	return out
}
