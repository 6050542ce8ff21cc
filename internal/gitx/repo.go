// Package gitx talks to the git binary on behalf of the staging flows: it
// reads the working-tree diff and the indexed file content, and stages
// patches into the index without touching the working tree.
package gitx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/asynkron/hunkstage/internal/logging"
)

var logField = logging.Field

// Options configures Open.
type Options struct {
	Binary  string
	Timeout time.Duration
	Retry   *RetryConfig
	Logger  logging.Logger
}

// Repo is a git working tree rooted at its top-level directory.
type Repo struct {
	root    string
	binary  string
	timeout time.Duration
	retry   *RetryConfig
	logger  logging.Logger
}

// Open resolves the top-level directory of the repository containing dir.
func Open(ctx context.Context, dir string, opts Options) (*Repo, error) {
	if strings.TrimSpace(dir) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	r := &Repo{
		root:    abs,
		binary:  opts.Binary,
		timeout: opts.Timeout,
		retry:   opts.Retry,
		logger:  opts.Logger,
	}
	if r.binary == "" {
		r.binary = "git"
	}
	if r.logger == nil {
		r.logger = &logging.NoOpLogger{}
	}

	res, err := r.run(ctx, abs, "", nil, "rev-parse", "--show-toplevel")
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			return nil, fmt.Errorf("%s is not inside a git repository", abs)
		}
		return nil, err
	}
	r.root = filepath.Clean(strings.TrimSpace(res.Stdout))
	return r, nil
}

// Root returns the repository's top-level directory.
func (r *Repo) Root() string { return r.root }

// RelPath converts a path given on the command line, absolute or relative to
// the process working directory, into a slash-separated path relative to the
// repository root.
func (r *Repo) RelPath(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return "", fmt.Errorf("empty path")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	root := r.root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the repository %s", path, r.root)
	}
	return filepath.ToSlash(rel), nil
}
