// Package cli implements the hunkstage command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/asynkron/hunkstage/internal/config"
	"github.com/asynkron/hunkstage/internal/gitx"
	"github.com/asynkron/hunkstage/internal/logging"
	"github.com/asynkron/hunkstage/internal/stage"
	"github.com/asynkron/hunkstage/internal/tui"
	"github.com/asynkron/hunkstage/pkg/patch"
)

// Exit codes returned by Run.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// usageError marks errors caused by how the command was invoked.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

type globalFlags struct {
	repo     string
	config   string
	logLevel string
	logFile  string
	color    string
}

type app struct {
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	lookupEnv func(string) (string, bool)

	flags globalFlags

	cfg      config.Config
	logger   logging.Logger
	closeLog func()
	repo     *gitx.Repo
	stager   *stage.Stager
	colorful bool
}

// Run executes hunkstage with the provided CLI arguments.
// It returns a POSIX-style exit code indicating whether execution succeeded.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return newApp(os.Stdin, stdout, stderr, os.LookupEnv).run(ctx, args)
}

func newApp(stdin io.Reader, stdout, stderr io.Writer, lookupEnv func(string) (string, bool)) *app {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	return &app{
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		lookupEnv: lookupEnv,
		logger:    &logging.NoOpLogger{},
		closeLog:  func() {},
	}
}

func (a *app) run(ctx context.Context, args []string) int {
	root := a.newRootCommand()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	defer a.closeLog()
	if err == nil {
		return ExitOK
	}

	a.printError(err)
	var usage *usageError
	if errors.As(err, &usage) {
		return ExitUsage
	}
	return ExitFailure
}

func (a *app) printError(err error) {
	prefix := color.New(color.FgRed, color.Bold)
	if a.colorful {
		prefix.EnableColor()
	} else {
		prefix.DisableColor()
	}

	message := err.Error()
	var patchErr *patch.Error
	if errors.As(err, &patchErr) {
		message = patch.FormatError(patchErr)
	}
	prefix.Fprint(a.stderr, "error:")
	fmt.Fprintf(a.stderr, " %s\n", message)

	var usage *usageError
	if errors.As(err, &usage) {
		fmt.Fprintln(a.stderr, "Run 'hunkstage --help' for usage.")
	}
}

func (a *app) newRootCommand() *cobra.Command {
	var updatesFile, applyFile string

	root := &cobra.Command{
		Use:   "hunkstage",
		Short: "Stage hand-picked changes from an editable updates document",
		Long: "hunkstage renders the uncommitted changes of a file as an updates document.\n" +
			"Edit or prune its records, then apply it to stage exactly those changes\n" +
			"without touching the working tree.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usagef("unknown command %q", args[0])
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Root invocations are checked before the repository is opened.
			if !cmd.HasParent() {
				switch {
				case updatesFile != "" && applyFile != "":
					return usagef("--updates and --apply are mutually exclusive")
				case updatesFile == "" && applyFile == "":
					_ = cmd.Help()
					return usagef("a command or one of --updates/--apply is required")
				}
			}
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if updatesFile != "" {
				return a.runUpdates(cmd.Context(), updatesFile, false)
			}
			return a.runApply(cmd.Context(), applyFile, false, false)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.repo, "repo", "", "repository directory (default: current directory)")
	pf.StringVar(&a.flags.config, "config", "", "config file (default: <repo>/"+config.FileName+")")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&a.flags.logFile, "log-file", "", "write JSON logs to this file instead of stderr")
	pf.StringVar(&a.flags.color, "color", "", "colour output: auto, always or never")

	root.Flags().StringVar(&updatesFile, "updates", "", "print the updates document for FILE")
	root.Flags().StringVar(&applyFile, "apply", "", "apply and stage the updates document FILE")

	root.AddCommand(
		a.newUpdatesCommand(),
		a.newApplyCommand(),
		a.newPreviewCommand(),
		a.newSelectCommand(),
	)
	return root
}

// setup loads configuration, builds the logger and opens the repository.
// It runs before every command.
func (a *app) setup(cmd *cobra.Command) error {
	ctx := logging.WithTraceID(cmd.Context(), logging.NewTraceID())

	// The first open only locates the root so its config file can be read.
	located, err := gitx.Open(ctx, a.flags.repo, gitx.Options{})
	if err != nil {
		return err
	}
	cfg, err := config.Load(config.LoadOptions{
		RepoRoot:   located.Root(),
		ConfigPath: a.flags.config,
		LookupEnv:  a.lookupEnv,
	})
	if err != nil {
		return err
	}
	if err := a.applyFlags(&cfg); err != nil {
		return err
	}
	a.cfg = cfg
	a.colorful = tui.ColorProfile(cfg.UI.Color, a.stdout) != termenv.Ascii

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return &usageError{err: err}
	}
	zl, err := logging.NewZapLogger(logging.Options{Level: level, File: cfg.Log.File, Writer: a.stderr})
	if err != nil {
		return err
	}
	a.logger = zl
	a.closeLog = func() { _ = zl.Close() }

	repo, err := gitx.Open(ctx, located.Root(), gitx.Options{
		Binary:  cfg.Git.Binary,
		Timeout: cfg.Git.Timeout,
		Retry:   gitx.DefaultRetryConfig(cfg.Git.LockRetries),
		Logger:  a.logger,
	})
	if err != nil {
		return err
	}
	a.repo = repo

	var differ patch.Differ = patch.LineDiffer{Context: cfg.Patch.Context}
	if cfg.Patch.Differ == config.DifferGit {
		differ = gitx.NoIndexDiffer{Repo: repo, Context: cfg.Patch.Context}
	}
	a.stager = &stage.Stager{
		Diffs:  repo,
		Bases:  repo,
		Sink:   repo,
		Differ: differ,
		Verify: cfg.Patch.VerifyEnabled(),
		Logger: a.logger,
	}

	a.logger.Debug(ctx, "hunkstage ready",
		logging.Field("repo", repo.Root()),
		logging.Field("differ", cfg.Patch.Differ),
		logging.Field("verify", cfg.Patch.VerifyEnabled()),
	)
	cmd.SetContext(ctx)
	return nil
}

func (a *app) applyFlags(cfg *config.Config) error {
	if v := strings.TrimSpace(a.flags.logLevel); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(a.flags.logFile); v != "" {
		cfg.Log.File = v
	}
	if v := strings.TrimSpace(a.flags.color); v != "" {
		cfg.UI.Color = strings.ToLower(v)
	}
	if err := cfg.Validate(); err != nil {
		return &usageError{err: err}
	}
	return nil
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int, what string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("expected %s, got %d argument(s)", what, len(args))
		}
		return nil
	}
}
