// Package stage wires the patch engine to its collaborators: it renders the
// working-tree diff of one file as an updates document, and replays an
// edited document against the indexed content to stage the result.
package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/asynkron/hunkstage/internal/logging"
	"github.com/asynkron/hunkstage/pkg/patch"
)

// DiffSource returns the uncommitted working-tree diff of one file.
type DiffSource interface {
	WorkingDiff(ctx context.Context, path string) (string, error)
}

// BaseSource returns the indexed content of one file.
type BaseSource interface {
	IndexContent(ctx context.Context, path string) (string, error)
}

// IndexSink stages a patch into the index without touching the working tree.
type IndexSink interface {
	ApplyCached(ctx context.Context, patchText string) error
}

// Checker is implemented by sinks that can test a patch without staging it.
type Checker interface {
	CheckApplyCached(ctx context.Context, patchText string) error
}

// Stager runs the updates and apply flows.
type Stager struct {
	Diffs  DiffSource
	Bases  BaseSource
	Sink   IndexSink
	Differ patch.Differ
	// Verify applies every synthesized patch in memory before it is staged.
	Verify bool
	Logger logging.Logger
}

// Plan is the outcome of replaying a document: the replayed content and the
// patch that stages it. Patch is empty when nothing changes.
type Plan struct {
	Path   string
	Patch  string
	Result patch.Result
}

// Staged reports whether the plan carries a patch.
func (p Plan) Staged() bool { return p.Patch != "" }

func (s *Stager) logger() logging.Logger {
	if s.Logger == nil {
		return &logging.NoOpLogger{}
	}
	return s.Logger
}

func (s *Stager) differ() patch.Differ {
	if s.Differ == nil {
		return patch.LineDiffer{}
	}
	return s.Differ
}

// Updates turns the working-tree diff of path into an updates document.
// Pure insertions are anchored to the base line they precede. Deleted,
// renamed, copied, new and binary files are refused with UNSUPPORTED_DIFF.
func (s *Stager) Updates(ctx context.Context, path string) (patch.Document, error) {
	if s.Diffs == nil {
		return patch.Document{}, errors.New("stage: no diff source")
	}
	log := s.logger().WithFields(logging.Field("path", path))

	diff, err := s.Diffs.WorkingDiff(ctx, path)
	if err != nil {
		log.Error(ctx, "reading working diff failed", err)
		return patch.Document{}, err
	}
	if err := InspectDiff(diff); err != nil {
		log.Warn(ctx, "diff refused", logging.Field("code", errorCode(err)))
		return patch.Document{}, err
	}

	hunks := patch.ParseUnifiedDiff(diff)
	groups := patch.AnchorInsertions(patch.GroupAll(hunks))
	doc := patch.Document{Path: path, Hunks: make([]patch.UpdateHunk, 0, len(groups))}
	for _, g := range groups {
		doc.Hunks = append(doc.Hunks, g.UpdateHunk())
	}
	log.Info(ctx, "rendered updates document",
		logging.Field("diff_bytes", len(diff)),
		logging.Field("hunks", len(hunks)),
		logging.Field("records", len(doc.Hunks)),
	)
	return doc, nil
}

// Preview replays doc against the indexed content and returns the patch
// Stage would apply, without touching the index. When the sink can check
// patches, git is asked whether the patch would apply.
func (s *Stager) Preview(ctx context.Context, doc patch.Document) (Plan, error) {
	plan, err := s.plan(ctx, doc)
	if err != nil {
		return Plan{}, err
	}
	if checker, ok := s.Sink.(Checker); ok && plan.Staged() {
		if err := checker.CheckApplyCached(ctx, plan.Patch); err != nil {
			s.logger().Error(ctx, "patch check failed", err, logging.Field("code", errorCode(err)))
			return Plan{}, withPath(err, plan.Path)
		}
	}
	return plan, nil
}

// Stage replays doc against the indexed content and stages the resulting
// patch. A document without records stages nothing and succeeds. Nothing is
// staged when validation, replay, synthesis or verification fails.
func (s *Stager) Stage(ctx context.Context, doc patch.Document) (Plan, error) {
	if s.Sink == nil {
		return Plan{}, errors.New("stage: no index sink")
	}
	plan, err := s.plan(ctx, doc)
	if err != nil {
		return Plan{}, err
	}
	log := s.logger().WithFields(logging.Field("path", plan.Path))
	if !plan.Staged() {
		log.Info(ctx, "nothing to stage", logging.Field("records", len(doc.Hunks)))
		return plan, nil
	}
	if err := s.Sink.ApplyCached(ctx, plan.Patch); err != nil {
		log.Error(ctx, "staging failed", err, logging.Field("code", errorCode(err)))
		return Plan{}, withPath(err, plan.Path)
	}
	log.Info(ctx, "staged patch",
		logging.Field("records", plan.Result.Applied),
		logging.Field("patch_bytes", len(plan.Patch)),
	)
	return plan, nil
}

func (s *Stager) plan(ctx context.Context, doc patch.Document) (Plan, error) {
	if s.Bases == nil {
		return Plan{}, errors.New("stage: no base source")
	}
	ws := &indexWorkspace{bases: s.Bases, differ: s.differ(), verify: s.Verify}
	result, err := patch.Apply(ctx, doc, ws)
	if err != nil {
		s.logger().Error(ctx, "replay failed", err,
			logging.Field("path", doc.Path),
			logging.Field("code", errorCode(err)),
		)
		return Plan{}, withPath(err, strings.TrimSpace(doc.Path))
	}
	return Plan{Path: result.Path, Patch: ws.patchText, Result: result}, nil
}

// indexWorkspace loads the base from the index and, on commit, synthesizes
// the patch from base to replayed content.
type indexWorkspace struct {
	bases     BaseSource
	differ    patch.Differ
	verify    bool
	patchText string
}

func (ws *indexWorkspace) Load(ctx context.Context, path string) (string, error) {
	return ws.bases.IndexContent(ctx, path)
}

func (ws *indexWorkspace) Commit(ctx context.Context, path, original, updated string) error {
	text, err := ws.differ.Diff(ctx, path, patch.SplitLines(original), patch.SplitLines(updated))
	if err != nil {
		return fmt.Errorf("synthesize patch for %s: %w", path, err)
	}
	if ws.verify {
		if err := patch.VerifyPatch(text, original, updated); err != nil {
			return withPath(err, path)
		}
	}
	ws.patchText = text
	return nil
}

func errorCode(err error) string {
	var pe *patch.Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

func withPath(err error, path string) error {
	var pe *patch.Error
	if errors.As(err, &pe) && pe.RelativePath == "" {
		pe.RelativePath = path
	}
	return err
}
