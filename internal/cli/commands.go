package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/asynkron/hunkstage/internal/logging"
	"github.com/asynkron/hunkstage/internal/stage"
	"github.com/asynkron/hunkstage/internal/tui"
	"github.com/asynkron/hunkstage/pkg/patch"
)

func (a *app) newUpdatesCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "updates <file>",
		Short: "Print the uncommitted changes of a file as an updates document",
		Args:  exactArgs(1, "one file"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runUpdates(cmd.Context(), args[0], asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the document as JSON")
	return cmd
}

func (a *app) newApplyCommand() *cobra.Command {
	var dryRun, keep bool
	cmd := &cobra.Command{
		Use:   "apply <updates-file>",
		Short: "Stage the records of an updates document and delete it",
		Args:  exactArgs(1, "one updates file"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runApply(cmd.Context(), args[0], dryRun, keep)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the patch and stage nothing")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the updates file after staging")
	return cmd
}

func (a *app) newPreviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <updates-file>",
		Short: "Print the patch that apply would stage",
		Args:  exactArgs(1, "one updates file"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := patch.ReadDocumentFile(args[0], patch.FilesystemOptions{})
			if err != nil {
				return err
			}
			plan, err := a.stager.Preview(ctx, doc)
			if err != nil {
				return err
			}
			return a.printPatch(plan.Patch)
		},
	}
}

func (a *app) newSelectCommand() *cobra.Command {
	var output string
	var apply bool
	cmd := &cobra.Command{
		Use:   "select <file>",
		Short: "Pick change groups interactively, then save or stage them",
		Args:  exactArgs(1, "one file"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && apply {
				return usagef("--output and --apply are mutually exclusive")
			}
			return a.runSelect(cmd.Context(), args[0], output, apply)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the kept records to this updates file (.json for JSON)")
	cmd.Flags().BoolVar(&apply, "apply", false, "stage the kept records immediately")
	return cmd
}

func (a *app) runUpdates(ctx context.Context, file string, asJSON bool) error {
	rel, err := a.repo.RelPath(file)
	if err != nil {
		return err
	}
	doc, err := a.stager.Updates(ctx, rel)
	if err != nil {
		return err
	}
	if !asJSON {
		_, err = fmt.Fprint(a.stdout, patch.FormatDocument(doc))
		return err
	}
	raw, err := patch.EncodeJSON(doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "%s\n", raw)
	return err
}

func (a *app) runApply(ctx context.Context, updatesFile string, dryRun, keep bool) error {
	plan, err := a.stager.ApplyFile(ctx, updatesFile, stage.ApplyOptions{DryRun: dryRun, Keep: keep})
	if err != nil {
		return err
	}
	if dryRun {
		return a.printPatch(plan.Patch)
	}
	if !plan.Staged() {
		fmt.Fprintf(a.stderr, "nothing to stage for %s\n", displayPath(plan.Path, updatesFile))
		return nil
	}
	fmt.Fprintf(a.stderr, "staged %d record(s) for %s\n", plan.Result.Applied, plan.Path)
	return nil
}

func (a *app) runSelect(ctx context.Context, file, output string, apply bool) error {
	rel, err := a.repo.RelPath(file)
	if err != nil {
		return err
	}
	doc, err := a.stager.Updates(ctx, rel)
	if err != nil {
		return err
	}
	if doc.Empty() {
		fmt.Fprintf(a.stderr, "no changes in %s\n", rel)
		return nil
	}

	keep, err := tui.Select(ctx, doc, tui.SelectOptions{
		Input:     a.stdin,
		Output:    a.stderr,
		AltScreen: a.colorful,
	})
	if err != nil {
		return err
	}
	selected := stage.Select(doc, keep)
	a.logger.Info(ctx, "records selected",
		logging.Field("path", rel),
		logging.Field("kept", len(selected.Hunks)),
		logging.Field("total", len(doc.Hunks)),
	)

	switch {
	case apply:
		plan, err := a.stager.Stage(ctx, selected)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stderr, "staged %d record(s) for %s\n", plan.Result.Applied, rel)
		return nil
	case output != "":
		asJSON := strings.EqualFold(filepath.Ext(output), ".json")
		if err := patch.WriteDocumentFile(output, selected, asJSON, patch.FilesystemOptions{}); err != nil {
			return err
		}
		fmt.Fprintf(a.stderr, "wrote %d record(s) to %s\n", len(selected.Hunks), output)
		return nil
	}
	_, err = fmt.Fprint(a.stdout, patch.FormatDocument(selected))
	return err
}

func (a *app) printPatch(patchText string) error {
	rendered, err := tui.RenderPatch(patchText, tui.RenderOptions{Color: a.colorful})
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.stdout, rendered)
	return err
}

func displayPath(path, fallback string) string {
	if path != "" {
		return path
	}
	return fallback
}
