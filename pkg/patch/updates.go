package patch

import (
	"regexp"
	"strconv"
	"strings"
)

// Markers of the updates format.
const (
	headerPrefix = "file: "
	markerOld    = "@@old"
	markerNew    = "@@new"
	markerEnd    = "@@end"
)

// UpdateHunk is one @@old/@@new/@@end record read back from an updates
// document. It has the same shape as ChangeGroup but comes from text a
// person or an agent may have edited, so it is validated before use.
type UpdateHunk struct {
	OldLine  int      `json:"oldLine"`
	OldLines []string `json:"oldLines"`
	NewLines []string `json:"newLines"`
}

// IsInsertion reports whether the record only adds lines.
func (h UpdateHunk) IsInsertion() bool { return len(h.OldLines) == 0 }

// IsDeletion reports whether the record only removes lines.
func (h UpdateHunk) IsDeletion() bool { return len(h.NewLines) == 0 }

// Span returns the inclusive base range the record occupies. An insertion
// occupies the empty range [OldLine, OldLine-1].
func (h UpdateHunk) Span() (start, end int) {
	return h.OldLine, h.OldLine + len(h.OldLines) - 1
}

// Document is a parsed updates file: the target path plus its records in
// document order.
type Document struct {
	Path  string       `json:"file"`
	Hunks []UpdateHunk `json:"hunks"`
}

// Empty reports whether the document carries no records.
func (d Document) Empty() bool { return len(d.Hunks) == 0 }

// FormatUpdates renders change groups as an updates document. With no
// groups the result is just the header line.
func FormatUpdates(path string, groups []ChangeGroup) string {
	doc := Document{Path: path, Hunks: make([]UpdateHunk, 0, len(groups))}
	for _, g := range groups {
		doc.Hunks = append(doc.Hunks, g.UpdateHunk())
	}
	return FormatDocument(doc)
}

// FormatDocument renders a document in the updates format.
func FormatDocument(doc Document) string {
	var b strings.Builder
	b.WriteString(headerPrefix)
	b.WriteString(doc.Path)
	b.WriteString("\n")
	for _, h := range doc.Hunks {
		b.WriteString("\n")
		writeRecord(&b, h)
	}
	return b.String()
}

func writeRecord(b *strings.Builder, h UpdateHunk) {
	b.WriteString(markerOld)
	b.WriteString(" ")
	b.WriteString(strconv.Itoa(h.OldLine))
	b.WriteString("\n")
	writeVerbatim(b, h.OldLines)
	b.WriteString(markerNew + "\n")
	writeVerbatim(b, h.NewLines)
	b.WriteString(markerEnd + "\n")
}

// writeVerbatim copies lines as they are. An unterminated line is followed
// by the no-newline marker, as in a unified diff, so the next marker still
// starts on its own line and ParseUpdates can restore the line exactly.
func writeVerbatim(b *strings.Builder, lines []string) {
	for _, line := range lines {
		b.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			b.WriteString("\n" + noNewlineMarker + "\n")
		}
	}
}

// recordLines renders a single record, one element per output line.
func recordLines(h UpdateHunk) []string {
	var b strings.Builder
	writeRecord(&b, h)
	return strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
}

var (
	fileHeaderRe = regexp.MustCompile(`^file:\s*(.+)$`)
	oldMarkerRe  = regexp.MustCompile(`^@@old\s+(\d+)$`)
)

// ParseUpdates reads an updates document. The path comes from the first
// "file:" line; every "@@old N" line opens a record whose old side runs to
// "@@new" and whose new side runs to "@@end". Content lines are kept
// verbatim except that "\ No newline at end of file" unterminates the line
// before it, and a record left open at end of input is closed there.
func ParseUpdates(text string) Document {
	lines := SplitLines(text)
	var doc Document

	i := 0
	for i < len(lines) {
		m := fileHeaderRe.FindStringSubmatch(stripNewline(lines[i]))
		i++
		if m != nil {
			doc.Path = strings.TrimSpace(m[1])
			break
		}
	}

	for i < len(lines) {
		m := oldMarkerRe.FindStringSubmatch(stripNewline(lines[i]))
		i++
		if m == nil {
			continue
		}
		oldLine, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		h := UpdateHunk{OldLine: oldLine}
		h.OldLines, i = collectUntil(lines, i, markerNew)
		h.NewLines, i = collectUntil(lines, i, markerEnd)
		doc.Hunks = append(doc.Hunks, h)
	}
	return doc
}

// collectUntil gathers lines from start up to the marker line and returns
// the index just past the marker. A no-newline marker removes the
// terminator of the line before it.
func collectUntil(lines []string, start int, marker string) ([]string, int) {
	var out []string
	i := start
	for i < len(lines) {
		line := lines[i]
		i++
		switch stripNewline(line) {
		case marker:
			return out, i
		case noNewlineMarker:
			if n := len(out); n > 0 {
				out[n-1] = stripNewline(out[n-1])
				continue
			}
		}
		out = append(out, line)
	}
	return out, i
}

func stripNewline(line string) string {
	return strings.TrimSuffix(line, "\n")
}
