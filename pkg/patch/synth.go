package patch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of context lines around each synthesized hunk.
const DefaultContext = 3

const noNewlineMarker = `\ No newline at end of file`

// Differ produces a unified diff addressed to path that turns oldLines into
// newLines. Identical inputs yield an empty patch.
type Differ interface {
	Diff(ctx context.Context, path string, oldLines, newLines []string) (string, error)
}

// LineDiffer computes the diff in process.
type LineDiffer struct {
	Context int
}

// Diff implements Differ.
func (d LineDiffer) Diff(ctx context.Context, path string, oldLines, newLines []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n := d.Context
	if n <= 0 {
		n = DefaultContext
	}
	return Synthesize(path, oldLines, newLines, n), nil
}

// Synthesize renders a git-style unified diff between two line sequences.
// Every emitted line that lacks a terminator is followed by the
// "\ No newline at end of file" marker, which is what git apply expects.
func Synthesize(path string, oldLines, newLines []string, context int) string {
	if equalLines(oldLines, newLines) {
		return ""
	}
	m := difflib.NewMatcherWithJunk(oldLines, newLines, false, nil)
	groups := m.GetGroupedOpCodes(context)
	if len(groups) == 0 {
		return ""
	}

	var b strings.Builder
	writeFileHeader(&b, path)
	for _, group := range groups {
		first, last := group[0], group[len(group)-1]
		fmt.Fprintf(&b, "@@ -%s +%s @@\n", formatRange(first.I1, last.I2), formatRange(first.J1, last.J2))
		for _, op := range group {
			if op.Tag == 'e' {
				writeDiffLines(&b, ' ', oldLines[op.I1:op.I2])
				continue
			}
			if op.Tag == 'r' || op.Tag == 'd' {
				writeDiffLines(&b, '-', oldLines[op.I1:op.I2])
			}
			if op.Tag == 'r' || op.Tag == 'i' {
				writeDiffLines(&b, '+', newLines[op.J1:op.J2])
			}
		}
	}
	return b.String()
}

func writeFileHeader(b *strings.Builder, path string) {
	fmt.Fprintf(b, "diff --git a/%s b/%s\n", path, path)
	fmt.Fprintf(b, "--- a/%s\n", path)
	fmt.Fprintf(b, "+++ b/%s\n", path)
}

func writeDiffLines(b *strings.Builder, marker byte, lines []string) {
	for _, line := range lines {
		b.WriteByte(marker)
		b.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			b.WriteString("\n" + noNewlineMarker + "\n")
		}
	}
}

// formatRange renders a hunk range the way GNU diff does: a single line is
// just its number and an empty range points at the line before it.
func formatRange(start, stop int) string {
	beginning := start + 1
	length := stop - start
	if length == 1 {
		return strconv.Itoa(beginning)
	}
	if length == 0 {
		beginning--
	}
	return fmt.Sprintf("%d,%d", beginning, length)
}
