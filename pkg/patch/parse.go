package patch

import (
	"regexp"
	"strconv"
	"strings"
)

// LineKind identifies the marker a unified-diff body line starts with.
type LineKind int

const (
	// LineContext is a line starting with a space.
	LineContext LineKind = iota
	// LineRemoved is a line starting with "-".
	LineRemoved
	// LineAdded is a line starting with "+".
	LineAdded
	// LineNoNewline is the "\ No newline at end of file" marker.
	LineNoNewline
)

func (k LineKind) String() string {
	switch k {
	case LineContext:
		return "context"
	case LineRemoved:
		return "removed"
	case LineAdded:
		return "added"
	case LineNoNewline:
		return "no-newline"
	default:
		return "unknown"
	}
}

// DiffLine is one raw body line of a hunk. Text keeps the marker and the
// line terminator exactly as they appeared in the diff.
type DiffLine struct {
	Kind LineKind
	Text string
}

// Content returns the line without its leading marker.
func (l DiffLine) Content() string {
	if l.Text == "" {
		return ""
	}
	return l.Text[1:]
}

// Hunk is one "@@ -a,b +c,d @@" section of a unified diff.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []DiffLine
}

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// ParseUnifiedDiff turns the output of "git diff <file>" into hunks in
// source order. File header lines are dropped and malformed hunk headers are
// skipped, so the function never fails; empty input yields no hunks.
func ParseUnifiedDiff(text string) []Hunk {
	lines := SplitLines(text)
	var hunks []Hunk

	i := 0
	for i < len(lines) {
		hunk, ok := parseHunkHeader(lines[i])
		i++
		if !ok {
			continue
		}

		oldLeft, newLeft := hunk.OldCount, hunk.NewCount
		for i < len(lines) {
			line := lines[i]
			if _, next := parseHunkHeader(line); next {
				break
			}
			exhausted := oldLeft <= 0 && newLeft <= 0
			if exhausted && isFileHeader(line) {
				break
			}
			kind, ok := classifyLine(line)
			i++
			if !ok {
				continue
			}
			switch kind {
			case LineContext:
				oldLeft--
				newLeft--
			case LineRemoved:
				oldLeft--
			case LineAdded:
				newLeft--
			}
			hunk.Lines = append(hunk.Lines, DiffLine{Kind: kind, Text: line})
		}
		hunks = append(hunks, hunk)
	}
	return hunks
}

func parseHunkHeader(line string) (Hunk, bool) {
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return Hunk{}, false
	}
	oldStart, err := strconv.Atoi(m[1])
	if err != nil {
		return Hunk{}, false
	}
	newStart, err := strconv.Atoi(m[3])
	if err != nil {
		return Hunk{}, false
	}
	oldCount, ok := parseCount(m[2])
	if !ok {
		return Hunk{}, false
	}
	newCount, ok := parseCount(m[4])
	if !ok {
		return Hunk{}, false
	}
	return Hunk{OldStart: oldStart, OldCount: oldCount, NewStart: newStart, NewCount: newCount}, true
}

// parseCount applies the unified-diff convention that an omitted count is 1.
func parseCount(raw string) (int, bool) {
	if raw == "" {
		return 1, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isFileHeader(line string) bool {
	return strings.HasPrefix(line, "diff --git") ||
		strings.HasPrefix(line, "index ") ||
		strings.HasPrefix(line, "--- ") ||
		strings.HasPrefix(line, "+++ ")
}

func classifyLine(line string) (LineKind, bool) {
	if line == "" {
		return 0, false
	}
	switch line[0] {
	case ' ':
		return LineContext, true
	case '-':
		return LineRemoved, true
	case '+':
		return LineAdded, true
	case '\\':
		return LineNoNewline, true
	default:
		return 0, false
	}
}

// SplitLines splits text after every "\n", keeping the terminator on each
// element. A final fragment without a terminator is kept as the last element.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
