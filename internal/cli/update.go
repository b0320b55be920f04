package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/verdictlab/verdict/internal/metadata"
	"github.com/verdictlab/verdict/internal/report"
	"github.com/verdictlab/verdict/internal/runstore"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	RunInfo  string
	Database string
	FromDB   []string
	DryRun   bool
	Clear    bool
}

// UpdateSummary is the update command's success payload.
type UpdateSummary struct {
	Runs  int                    `json:"runs"`
	Files []metadata.FileSummary `json:"files"`
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <metadata-root> [results.json...]",
		Short: "Fold observed runs into expectation tables",
		Long: `Fold one or more observed harness runs into the expectation tables
under a metadata root.

Runs come from results documents given as arguments, from journaled runs
selected with --from-db, or both. Evidence is recorded per test,
coalesced, and only tables whose stored expectations changed are
rewritten.

Example:
  verdict update ./meta linux.json win.json
  verdict update ./meta --db runs.db --from-db <run-id> --dry-run`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunInfo, "run-info", "", "YAML file of run-info properties overriding each document's run_info")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the run journal database")
	cmd.Flags().StringArrayVar(&opts.FromDB, "from-db", nil, "journaled run ID to include (repeatable, requires --db)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "reconcile in memory without writing tables")
	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "drop stored expectations and rebuild from this evidence")

	return cmd
}

func runUpdate(opts *UpdateOptions, metadataRoot string, files []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if len(files) == 0 && len(opts.FromDB) == 0 {
		return NewExitError(ExitCommandError, "no runs given: pass results documents or --from-db")
	}
	if len(opts.FromDB) > 0 && opts.Database == "" {
		return NewExitError(ExitCommandError, "--from-db requires --db")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runs, err := loadRuns(ctx, opts, files)
	if err != nil {
		formatter.Error(ErrCodeLoad, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load runs", err)
	}

	slog.Info("reconciling", "root", metadataRoot, "runs", len(runs), "dry_run", opts.DryRun)
	summaries, err := metadata.Update(metadataRoot, runs, metadata.UpdateOptions{
		DryRun:        opts.DryRun,
		ClearExisting: opts.Clear,
	})
	if err != nil {
		formatter.Error(ErrCodeReconcile, err.Error(), nil)
		return WrapExitError(ExitFailure, "reconciliation failed", err)
	}

	return outputUpdateSummary(formatter, UpdateSummary{Runs: len(runs), Files: summaries})
}

// loadRuns gathers runs from results documents and the journal, in that
// order. Document order is argument order; journal order is --from-db
// order.
func loadRuns(ctx context.Context, opts *UpdateOptions, files []string) ([]report.Run, error) {
	var runs []report.Run

	for _, path := range files {
		run, err := decodeResultsFile(path)
		if err != nil {
			return nil, err
		}
		if opts.RunInfo != "" {
			run.Info, err = report.LoadRunInfoYAML(opts.RunInfo, run.Info)
			if err != nil {
				return nil, err
			}
		}
		runs = append(runs, *run)
	}

	if len(opts.FromDB) > 0 {
		s, err := runstore.Open(opts.Database)
		if err != nil {
			return nil, err
		}
		defer s.Close()

		for _, id := range opts.FromDB {
			run, err := s.LoadRun(ctx, id)
			if err != nil {
				return nil, err
			}
			runs = append(runs, *run)
		}
	}

	return runs, nil
}

func decodeResultsFile(path string) (*report.Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open results document: %w", err)
	}
	defer f.Close()

	run, err := report.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return run, nil
}

func outputUpdateSummary(f *OutputFormatter, summary UpdateSummary) error {
	if f.JSON() {
		return f.Success(summary)
	}

	for _, file := range summary.Files {
		switch {
		case file.Removed:
			fmt.Fprintf(f.Writer, "removed   %s\n", file.Path)
		case file.Written:
			fmt.Fprintf(f.Writer, "written   %s\n", file.Path)
		case file.Modified:
			fmt.Fprintf(f.Writer, "modified  %s (not written)\n", file.Path)
		default:
			f.VerboseLog("unchanged %s", file.Path)
		}
	}
	fmt.Fprintf(f.Writer, "%d run(s), %d file(s) examined\n", summary.Runs, len(summary.Files))
	return nil
}
