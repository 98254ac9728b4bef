package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/refcheck/internal/app"
	"github.com/hyperifyio/refcheck/internal/check"
	"github.com/hyperifyio/refcheck/internal/warn"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <paper.html>",
	Short: "Match citations to references and check reference completeness",
	Long: `Check one converted paper. Warnings are appended to conversion_warnings.csv
in the output directory; summary.md and refcheck.manifest.json describe the run.

The exit status is 0 even when warnings were recorded.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

// CheckResult is the JSON printed by the check command.
type CheckResult struct {
	Template   string             `json:"template"`
	References int                `json:"references"`
	Citations  int                `json:"citations"`
	Mismatches []string           `json:"mismatches,omitempty"`
	Incomplete []check.Incomplete `json:"incomplete,omitempty"`
	Warnings   []warn.Entry       `json:"warnings"`
	Summary    string             `json:"summary,omitempty"`
	Manifest   string             `json:"manifest,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd.Flags(), args[0])
	if err != nil {
		return err
	}
	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out, err := a.Run(ctx)
	if err != nil {
		return err
	}
	warnings := out.Warnings
	if warnings == nil {
		warnings = []warn.Entry{}
	}
	return outputJSON(cmd.OutOrStdout(), CheckResult{
		Template:   string(out.Template),
		References: len(out.Result.References),
		Citations:  len(out.Result.Citations),
		Mismatches: out.Result.Mismatches,
		Incomplete: out.Result.Incomplete,
		Warnings:   warnings,
		Summary:    out.SummaryPath,
		Manifest:   out.ManifestPath,
	})
}
