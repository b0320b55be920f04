package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verdictlab/verdict/internal/expr"
	"github.com/verdictlab/verdict/internal/manifest"
	"github.com/verdictlab/verdict/internal/runstore"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
}

// RunListing is one journaled run in the runs payload.
type RunListing struct {
	ID        string            `json:"id"`
	CreatedAt string            `json:"created_at"`
	Info      map[string]string `json:"run_info"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List journaled runs",
		Long: `List every run journaled in the database, oldest first, with its
run-info properties.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the run journal database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
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
	defer s.Close()

	metas, err := s.ListRuns(ctx)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	listings := make([]RunListing, 0, len(metas))
	for _, meta := range metas {
		listings = append(listings, RunListing{
			ID:        meta.ID,
			CreatedAt: meta.CreatedAt.Format(time.RFC3339),
			Info:      renderRunInfo(meta.Info),
		})
	}

	if formatter.JSON() {
		return formatter.Success(listings)
	}
	for _, l := range listings {
		fmt.Fprintf(formatter.Writer, "%s  %s  %s\n", l.ID, l.CreatedAt, renderInfoLine(l.Info))
	}
	if len(listings) == 0 {
		fmt.Fprintln(formatter.Writer, "no runs journaled")
	}
	return nil
}

// renderRunInfo flattens run-info values to display strings.
func renderRunInfo(info manifest.RunInfo) map[string]string {
	out := make(map[string]string, len(info))
	for name, v := range info {
		switch val := v.(type) {
		case expr.String:
			out[name] = string(val)
		case expr.Int:
			out[name] = fmt.Sprintf("%d", int64(val))
		case expr.Bool:
			out[name] = fmt.Sprintf("%t", bool(val))
		}
	}
	return out
}

func renderInfoLine(info map[string]string) string {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+info[k])
	}
	return strings.Join(parts, " ")
}
