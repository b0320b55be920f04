package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verdictlab/verdict/internal/syntax"
)

// ValidationIssue is one table that failed to parse.
type ValidationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Tables int               `json:"tables"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <metadata-root>",
		Short: "Parse-check every expectation table under a root",
		Long: `Parse every .ini expectation table under a metadata root and report
tables that fail to parse. No reconciliation happens; this is the fast
check for hand-edited tables.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, metadataRoot string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result := ValidationResult{Valid: true}

	err := filepath.WalkDir(metadataRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".ini") {
			return nil
		}

		result.Tables++
		formatter.VerboseLog("checking %s", path)
		if issue := checkTable(path); issue != nil {
			result.Valid = false
			result.Issues = append(result.Issues, *issue)
		}
		return nil
	})
	if err != nil {
		formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "walk metadata root", err)
	}

	if !result.Valid {
		if err := outputValidationResult(formatter, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d table(s) failed to parse", len(result.Issues)))
	}
	return outputValidationResult(formatter, result)
}

func checkTable(path string) *ValidationIssue {
	f, err := os.Open(path)
	if err != nil {
		return &ValidationIssue{Path: path, Message: err.Error()}
	}
	defer f.Close()

	if _, err := syntax.Parse(f, path); err != nil {
		return &ValidationIssue{Path: path, Message: err.Error()}
	}
	return nil
}

func outputValidationResult(f *OutputFormatter, result ValidationResult) error {
	if f.JSON() {
		return f.Success(result)
	}

	for _, issue := range result.Issues {
		fmt.Fprintf(f.Writer, "invalid  %s: %s\n", issue.Path, issue.Message)
	}
	if result.Valid {
		fmt.Fprintf(f.Writer, "%d table(s) ok\n", result.Tables)
	} else {
		fmt.Fprintf(f.Writer, "%d of %d table(s) failed to parse\n", len(result.Issues), result.Tables)
	}
	return nil
}
