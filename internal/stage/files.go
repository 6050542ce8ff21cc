package stage

import (
	"context"

	"github.com/asynkron/hunkstage/internal/logging"
	"github.com/asynkron/hunkstage/pkg/patch"
)

// ApplyOptions controls ApplyFile.
type ApplyOptions struct {
	// DryRun builds and checks the patch but stages nothing.
	DryRun bool
	// Keep leaves the updates file in place after a successful apply.
	Keep bool
	// Files resolves the updates file path.
	Files patch.FilesystemOptions
}

// ApplyFile reads an updates document from disk and stages it. The file is
// removed only after a successful, non dry-run apply, so a failed attempt
// can be retried from the same document.
func (s *Stager) ApplyFile(ctx context.Context, updatesPath string, opts ApplyOptions) (Plan, error) {
	doc, err := patch.ReadDocumentFile(updatesPath, opts.Files)
	if err != nil {
		return Plan{}, err
	}

	var plan Plan
	if opts.DryRun {
		plan, err = s.Preview(ctx, doc)
	} else {
		plan, err = s.Stage(ctx, doc)
	}
	if err != nil {
		return Plan{}, err
	}
	if opts.DryRun || opts.Keep {
		return plan, nil
	}
	if err := patch.RemoveDocumentFile(updatesPath, opts.Files); err != nil {
		return plan, err
	}
	s.logger().Debug(ctx, "consumed updates file", logging.Field("file", updatesPath))
	return plan, nil
}

// Select keeps the records of doc whose indexes are set in keep, in
// document order.
func Select(doc patch.Document, keep []bool) patch.Document {
	out := patch.Document{Path: doc.Path}
	for i, h := range doc.Hunks {
		if i < len(keep) && keep[i] {
			out.Hunks = append(out.Hunks, h)
		}
	}
	return out
}
