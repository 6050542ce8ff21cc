package gitx

import (
	"context"
	"errors"
	"fmt"

	"github.com/asynkron/hunkstage/pkg/patch"
)

// WorkingDiff returns the unified diff of path between the index and the
// working tree. No changes yield an empty string.
func (r *Repo) WorkingDiff(ctx context.Context, path string) (string, error) {
	res, err := r.run(ctx, "", "", nil,
		"diff", "--no-color", "--no-ext-diff", "--src-prefix=a/", "--dst-prefix=b/", "--", path)
	if err != nil {
		return "", fmt.Errorf("working diff for %s: %w", path, err)
	}
	return res.Stdout, nil
}

// IndexContent returns the content of path as recorded in the index. A path
// that is not in the index fails with a MISSING_BASE error.
func (r *Repo) IndexContent(ctx context.Context, path string) (string, error) {
	res, err := r.run(ctx, "", "", nil, "show", ":"+path)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			return "", &patch.Error{
				Code:         patch.CodeMissingBase,
				Message:      fmt.Sprintf("%s is not in the index", path),
				RelativePath: path,
				Diagnostic:   cmdErr.Stderr,
			}
		}
		return "", err
	}
	return res.Stdout, nil
}

// ApplyCached stages patchText into the index only. A patch git refuses
// fails with an APPLY_REJECTED error carrying git's stderr. While another
// process holds the index lock the call is retried with backoff.
func (r *Repo) ApplyCached(ctx context.Context, patchText string) error {
	return executeWithRetry(ctx, r.retry, func() error {
		return r.applyCached(ctx, patchText, false)
	})
}

// CheckApplyCached asks git whether patchText would stage cleanly without
// changing the index.
func (r *Repo) CheckApplyCached(ctx context.Context, patchText string) error {
	return r.applyCached(ctx, patchText, true)
}

func (r *Repo) applyCached(ctx context.Context, patchText string, check bool) error {
	args := []string{"apply", "--cached", "--whitespace=nowarn"}
	if check {
		args = append(args, "--check")
	}
	args = append(args, "-")

	_, err := r.run(ctx, "", patchText, nil, args...)
	if err == nil {
		return nil
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	if isIndexLocked(cmdErr.Stderr) {
		r.logger.Warn(ctx, "index is locked by another git process")
		return &indexLockError{err: cmdErr}
	}
	return &patch.Error{
		Code:       patch.CodeApplyRejected,
		Message:    "git apply --cached rejected the patch",
		Diagnostic: cmdErr.Stderr,
	}
}
