package patch

import "sort"

// ValidateHunks fails with a RANGE_CONFLICT error if the base ranges of any
// two records intersect. Pure insertions occupy an empty range and never
// conflict. The check is pairwise over the input in any order and has no
// side effects.
func ValidateHunks(hunks []UpdateHunk) error {
	for i, a := range hunks {
		for _, b := range hunks[i+1:] {
			if overlaps(a, b) {
				return newError(CodeRangeConflict,
					"hunks overlap: hunk at line %d and hunk at line %d", a.OldLine, b.OldLine)
			}
		}
	}
	return nil
}

func overlaps(a, b UpdateHunk) bool {
	if a.IsInsertion() || b.IsInsertion() {
		return false
	}
	startA, endA := a.Span()
	startB, endB := b.Span()
	return startA <= endB && startB <= endA
}

// SortHunks returns the records ordered by OldLine. At equal OldLine an
// insertion goes before a record that consumes lines, since it lands in
// front of that line. The sort is stable, so insertions sharing an anchor
// keep their document order.
func SortHunks(hunks []UpdateHunk) []UpdateHunk {
	sorted := append([]UpdateHunk(nil), hunks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.OldLine != b.OldLine {
			return a.OldLine < b.OldLine
		}
		return a.IsInsertion() && !b.IsInsertion()
	})
	return sorted
}
