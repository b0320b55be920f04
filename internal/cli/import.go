package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/verdictlab/verdict/internal/runstore"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
}

// ImportedRun is one journaled document in the import payload.
type ImportedRun struct {
	Path    string `json:"path"`
	RunID   string `json:"run_id"`
	Results int    `json:"results"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <results.json...>",
		Short: "Journal results documents as runs",
		Long: `Decode results documents and journal each as one run in the database,
so later updates can replay them with --from-db.

Example:
  verdict import --db runs.db linux.json win.json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the run journal database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(opts *ImportOptions, files []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := runstore.Open(opts.Database)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	var imported []ImportedRun
	for _, path := range files {
		run, err := decodeResultsFile(path)
		if err != nil {
			formatter.Error(ErrCodeLoad, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load results document", err)
		}

		id, err := s.ImportRun(ctx, run)
		if err != nil {
			formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to journal run", err)
		}
		slog.Info("run journaled", "path", path, "run_id", id, "results", len(run.Results))
		imported = append(imported, ImportedRun{Path: path, RunID: id, Results: len(run.Results)})
	}

	if formatter.JSON() {
		return formatter.Success(imported)
	}
	for _, imp := range imported {
		fmt.Fprintf(formatter.Writer, "%s  %s (%d result(s))\n", imp.RunID, imp.Path, imp.Results)
	}
	return nil
}
