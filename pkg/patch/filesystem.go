package patch

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemOptions controls how updates documents are located on disk.
type FilesystemOptions struct {
	// WorkingDir resolves relative document paths. Empty means the process
	// working directory.
	WorkingDir string
}

// ReadDocumentFile loads an updates document from disk. Files whose first
// non-blank byte is '{' are decoded as JSON, anything else is read in the
// text format.
func ReadDocumentFile(path string, opts FilesystemOptions) (Document, error) {
	abs, err := resolvePath(path, opts)
	if err != nil {
		return Document{}, err
	}
	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Document{}, fmt.Errorf("updates file %s does not exist", path)
	case err != nil:
		return Document{}, fmt.Errorf("failed to stat %s: %w", path, err)
	case info.IsDir():
		return Document{}, fmt.Errorf("updates file %s is a directory", path)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if trimmed := bytes.TrimSpace(content); len(trimmed) > 0 && trimmed[0] == '{' {
		return DecodeJSON(content)
	}
	return ParseUpdates(string(content)), nil
}

// WriteDocumentFile writes doc to path in the text format, or as JSON when
// asJSON is set. Missing parent directories are created.
func WriteDocumentFile(path string, doc Document, asJSON bool, opts FilesystemOptions) error {
	abs, err := resolvePath(path, opts)
	if err != nil {
		return err
	}
	data := []byte(FormatDocument(doc))
	if asJSON {
		if data, err = EncodeJSON(doc); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// RemoveDocumentFile deletes a consumed updates document. A file that is
// already gone is not an error.
func RemoveDocumentFile(path string, opts FilesystemOptions) error {
	abs, err := resolvePath(path, opts)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

func resolvePath(relative string, opts FilesystemOptions) (string, error) {
	rel := strings.TrimSpace(relative)
	if rel == "" {
		return "", fmt.Errorf("invalid document path")
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return cleaned, nil
	}
	workingDir := strings.TrimSpace(opts.WorkingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to determine working directory: %w", err)
		}
		workingDir = wd
	}
	return filepath.Clean(filepath.Join(workingDir, cleaned)), nil
}
