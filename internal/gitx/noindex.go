package gitx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/asynkron/hunkstage/pkg/patch"
)

// NoIndexDiffer synthesizes patches with "git diff --no-index". Both sides
// are written below a temporary directory and the temporary names in the
// output are rewritten back to the caller's path.
type NoIndexDiffer struct {
	Repo    *Repo
	Context int
}

var _ patch.Differ = NoIndexDiffer{}

// Diff implements patch.Differ.
func (d NoIndexDiffer) Diff(ctx context.Context, path string, oldLines, newLines []string) (string, error) {
	if d.Repo == nil {
		return "", fmt.Errorf("no-index differ has no repository")
	}
	oldText := strings.Join(oldLines, "")
	newText := strings.Join(newLines, "")
	if oldText == newText {
		return "", nil
	}

	scratch, err := os.MkdirTemp("", "hunkstage-diff-")
	if err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	rel := filepath.FromSlash(path)
	oldRel := filepath.Join("old", rel)
	newRel := filepath.Join("new", rel)
	if err := writeScratch(scratch, oldRel, oldText); err != nil {
		return "", err
	}
	if err := writeScratch(scratch, newRel, newText); err != nil {
		return "", err
	}

	n := d.Context
	if n <= 0 {
		n = patch.DefaultContext
	}
	// Exit status 1 means the files differ.
	res, err := d.Repo.run(ctx, scratch, "", []int{1},
		"diff", "--no-index", "--no-color", "--no-ext-diff", "-U"+strconv.Itoa(n),
		"--src-prefix=a/", "--dst-prefix=b/", "--", filepath.ToSlash(oldRel), filepath.ToSlash(newRel))
	if err != nil {
		return "", fmt.Errorf("git diff --no-index: %w", err)
	}
	return rewriteScratchNames(res.Stdout, path), nil
}

func writeScratch(root, rel, content string) error {
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write scratch file: %w", err)
	}
	return nil
}

func rewriteScratchNames(diff, path string) string {
	return strings.NewReplacer(
		"a/old/"+path, "a/"+path,
		"b/new/"+path, "b/"+path,
	).Replace(diff)
}
