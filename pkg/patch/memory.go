package patch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Workspace supplies the base content a document is replayed against and
// receives the replayed result.
type Workspace interface {
	Load(ctx context.Context, path string) (string, error)
	Commit(ctx context.Context, path, original, updated string) error
}

// Result describes the outcome of applying a document.
type Result struct {
	Path     string
	Original string
	Updated  string
	Applied  int
}

// Changed reports whether the replay produced different content.
func (r Result) Changed() bool { return r.Original != r.Updated }

// Apply sorts and validates the document's records, loads the base from the
// workspace, replays the records and hands the result to the workspace. A
// document without records is a successful no-op that touches nothing.
// Range conflicts are reported before the base is loaded.
//
// Lines are matched exactly, terminators included, so a record only
// touches the last line of a file without a trailing newline when its old
// side is unterminated too.
func Apply(ctx context.Context, doc Document, ws Workspace) (Result, error) {
	if ws == nil {
		return Result{}, fmt.Errorf("nil workspace")
	}
	if doc.Empty() {
		return Result{Path: strings.TrimSpace(doc.Path)}, nil
	}
	path, err := cleanPath(doc.Path)
	if err != nil {
		return Result{}, err
	}
	result := Result{Path: path}

	if err := ValidateHunks(doc.Hunks); err != nil {
		return Result{}, withPath(err, path)
	}
	for _, h := range doc.Hunks {
		if h.OldLine < 1 {
			return Result{}, &Error{
				Code:         CodeInvalidDocument,
				Message:      fmt.Sprintf("record at line %d has no valid anchor", h.OldLine),
				RelativePath: path,
			}
		}
	}
	sorted := SortHunks(doc.Hunks)

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	base, err := ws.Load(ctx, path)
	if err != nil {
		return Result{}, err
	}

	st := newState(path, SplitLines(base))
	if err := replay(st, sorted); err != nil {
		return Result{}, err
	}

	result.Original = base
	result.Updated = strings.Join(st.lines, "")
	result.Applied = len(sorted)

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := ws.Commit(ctx, path, result.Original, result.Updated); err != nil {
		return Result{}, err
	}
	return result, nil
}

// ApplyToMemory applies a document to an in-memory snapshot represented by a
// map of path to content. The provided map is copied before mutation and the
// updated snapshot is returned.
func ApplyToMemory(ctx context.Context, doc Document, files map[string]string) (map[string]string, Result, error) {
	snapshot := make(map[string]string, len(files))
	for k, v := range files {
		snapshot[k] = v
	}
	ws := newMemoryWorkspace(snapshot)
	result, err := Apply(ctx, doc, ws)
	if err != nil {
		return nil, Result{}, err
	}
	return ws.files, result, nil
}

// ApplyMemoryUpdates parses an updates document and applies it to an
// in-memory map of files.
func ApplyMemoryUpdates(ctx context.Context, text string, files map[string]string) (map[string]string, Result, error) {
	return ApplyToMemory(ctx, ParseUpdates(text), files)
}

type memoryWorkspace struct {
	files map[string]string
}

func newMemoryWorkspace(files map[string]string) *memoryWorkspace {
	return &memoryWorkspace{files: files}
}

func (ws *memoryWorkspace) Load(_ context.Context, path string) (string, error) {
	content, ok := ws.files[path]
	if !ok {
		return "", &Error{
			Code:         CodeMissingBase,
			Message:      fmt.Sprintf("%s does not exist in the snapshot", path),
			RelativePath: path,
		}
	}
	return content, nil
}

func (ws *memoryWorkspace) Commit(_ context.Context, path, _, updated string) error {
	ws.files[path] = updated
	return nil
}

func cleanPath(path string) (string, error) {
	rel := strings.TrimSpace(path)
	if rel == "" {
		return "", &Error{Code: CodeInvalidDocument, Message: "updates document has no file: header"}
	}
	cleaned := filepath.ToSlash(filepath.Clean(rel))
	if cleaned == "." {
		return "", &Error{Code: CodeInvalidDocument, Message: fmt.Sprintf("invalid file path %q", path)}
	}
	return cleaned, nil
}

func withPath(err error, path string) error {
	if pe, ok := err.(*Error); ok && pe.RelativePath == "" {
		pe.RelativePath = path
	}
	return err
}
