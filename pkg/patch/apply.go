package patch

import (
	"errors"
	"fmt"
	"strings"
)

const excerptRadius = 2

type state struct {
	relativePath string
	lines        []string
	offset       int
	hunkStatuses []HunkStatus
}

// ApplyHunks replays records against the base lines and returns the
// resulting lines. The records must already be sorted with SortHunks and
// checked with ValidateHunks. Each record lands at OldLine plus the net line
// delta of every record before it. The input slice is not modified, and on
// failure no partial result is returned.
func ApplyHunks(lines []string, hunks []UpdateHunk) ([]string, error) {
	st := newState("", lines)
	if err := replay(st, hunks); err != nil {
		return nil, err
	}
	return st.lines, nil
}

func newState(path string, lines []string) *state {
	return &state{
		relativePath: path,
		lines:        append([]string(nil), lines...),
	}
}

func replay(st *state, hunks []UpdateHunk) error {
	for index, hunk := range hunks {
		number := index + 1
		if err := applyHunk(st, hunk); err != nil {
			return enhanceHunkError(err, st, hunk, number)
		}
		st.hunkStatuses = append(st.hunkStatuses, HunkStatus{Number: number, Status: "applied"})
	}
	return nil
}

func applyHunk(st *state, hunk UpdateHunk) error {
	if st == nil {
		return errors.New("missing replay state")
	}
	target := hunk.OldLine + st.offset
	start := target - 1

	if hunk.IsInsertion() {
		if start < 0 || start > len(st.lines) {
			return &Error{
				Code:     CodeStaleContent,
				Message:  fmt.Sprintf("insertion point %d is outside the file (%d lines)", target, len(st.lines)),
				Position: target,
			}
		}
		st.lines = splice(st.lines, start, 0, hunk.NewLines)
		st.offset += len(hunk.NewLines)
		return nil
	}

	actual := window(st.lines, start, len(hunk.OldLines))
	if !equalLines(actual, hunk.OldLines) {
		return &Error{
			Code:     CodeStaleContent,
			Message:  fmt.Sprintf("old lines not found at line %d: expected %q, found %q", target, hunk.OldLines, actual),
			Position: target,
			Expected: append([]string(nil), hunk.OldLines...),
			Actual:   actual,
		}
	}

	st.lines = splice(st.lines, start, len(hunk.OldLines), hunk.NewLines)
	st.offset += len(hunk.NewLines) - len(hunk.OldLines)
	return nil
}

// window returns a copy of up to n lines starting at index start, clamped to
// the bounds of lines.
func window(lines []string, start, n int) []string {
	if start < 0 || start >= len(lines) {
		return nil
	}
	end := start + n
	if end > len(lines) {
		end = len(lines)
	}
	return append([]string(nil), lines[start:end]...)
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func splice(target []string, index, deleteCount int, replacement []string) []string {
	if deleteCount == 0 && len(replacement) == 0 {
		return target
	}
	result := make([]string, 0, len(target)-deleteCount+len(replacement))
	result = append(result, target[:index]...)
	result = append(result, replacement...)
	result = append(result, target[index+deleteCount:]...)
	return result
}

func enhanceHunkError(err error, st *state, hunk UpdateHunk, number int) *Error {
	var pe *Error
	if !errors.As(err, &pe) {
		pe = &Error{Message: err.Error()}
	}

	statuses := append([]HunkStatus{}, st.hunkStatuses...)
	statuses = append(statuses, HunkStatus{Number: number, Status: "no-match"})
	pe.HunkStatuses = statuses

	if pe.Code == "" {
		pe.Code = CodeStaleContent
	}
	if pe.RelativePath == "" {
		pe.RelativePath = st.relativePath
	}
	if pe.Excerpt == "" && pe.Position > 0 {
		pe.Excerpt = excerpt(st.lines, pe.Position, len(hunk.OldLines))
	}
	if pe.FailedHunk == nil {
		pe.FailedHunk = &FailedHunk{Number: number, RawPatchLines: recordLines(hunk)}
	}
	return pe
}

// excerpt renders numbered lines around a 1-based position of the partially
// replayed content.
func excerpt(lines []string, position, span int) string {
	if len(lines) == 0 {
		return ""
	}
	if span < 1 {
		span = 1
	}
	first := position - excerptRadius
	if first < 1 {
		first = 1
	}
	last := position + span - 1 + excerptRadius
	if last > len(lines) {
		last = len(lines)
	}
	if first > last {
		return ""
	}
	var b strings.Builder
	for n := first; n <= last; n++ {
		fmt.Fprintf(&b, "%6d  %s", n, lines[n-1])
		if !strings.HasSuffix(lines[n-1], "\n") {
			b.WriteString("\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func describeHunkStatuses(statuses []HunkStatus) string {
	if len(statuses) == 0 {
		return ""
	}
	var applied []string
	var failed string
	for _, status := range statuses {
		if status.Status == "applied" {
			applied = append(applied, fmt.Sprintf("%d", status.Number))
			continue
		}
		if failed == "" {
			failed = fmt.Sprintf("No match for record %d.", status.Number)
		}
	}

	parts := make([]string, 0, 2)
	if len(applied) > 0 {
		parts = append(parts, fmt.Sprintf("Records applied: %s.", strings.Join(applied, ", ")))
	}
	if failed != "" {
		parts = append(parts, failed)
	}
	return strings.Join(parts, "\n")
}

// FormatError renders Error values into a human readable message suitable for
// surfacing to end users.
func FormatError(err *Error) string {
	if err == nil {
		return "Unknown error occurred."
	}
	message := err.Message
	if message == "" {
		message = "Unknown error occurred."
	}

	var parts []string
	parts = append(parts, message)
	switch err.Code {
	case CodeStaleContent:
		if summary := describeHunkStatuses(err.HunkStatuses); summary != "" {
			parts = append(parts, "", summary)
		}
		if err.FailedHunk != nil && len(err.FailedHunk.RawPatchLines) > 0 {
			parts = append(parts, "", "Offending record:")
			parts = append(parts, strings.Join(err.FailedHunk.RawPatchLines, "\n"))
		}
		if err.Excerpt != "" {
			displayPath := err.RelativePath
			if displayPath == "" {
				displayPath = "base"
			}
			parts = append(parts, "", fmt.Sprintf("Current content of %s near line %d:", displayPath, err.Position), err.Excerpt)
		}
	case CodeApplyRejected, CodeMissingBase, CodePatchMismatch:
		if diag := strings.TrimSpace(err.Diagnostic); diag != "" {
			parts = append(parts, "", diag)
		}
	}
	return strings.Join(parts, "\n")
}
