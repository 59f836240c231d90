package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ahrav/go-rubric/infrastructure/schema"
	"github.com/ahrav/go-rubric/internal/domain"
)

// errInvalidEvaluation makes the process exit with status 1 after the
// issues have been printed.
var errInvalidEvaluation = errors.New("evaluation is invalid")

func newValidateCmd(a *app) *cobra.Command {
	var (
		category string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "validate <file|->",
		Short: "Check analyst output against the rubric contract",
		Long: `Validate parses analyst output, optionally wrapped in a code fence, and
prints every contract violation. The exit status is 1 when the output is
invalid. Use "-" to read from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := domain.ParseCategory(category)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			v, err := schema.NewValidator(a.config.Validator)
			if err != nil {
				return err
			}
			result := v.Validate(string(raw), cat)
			a.logger.Debug("evaluation validated",
				"source", args[0], "valid", result.Valid, "issues", len(result.Errors))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else {
				printValidation(out, result)
			}

			if !result.Valid {
				return errInvalidEvaluation
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "challenge category for specialization checks")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the validation result as JSON")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func printValidation(w io.Writer, result domain.ValidationResult) {
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	for _, msg := range result.Warnings {
		fmt.Fprintf(w, "%s %s\n", yellow("warning:"), msg)
	}
	if result.Valid {
		fmt.Fprintln(w, green("valid"))
		return
	}
	fmt.Fprintf(w, "%s (%d issues)\n", red("invalid"), len(result.Errors))
	for _, msg := range result.Errors {
		fmt.Fprintf(w, "  - %s\n", msg)
	}
}
