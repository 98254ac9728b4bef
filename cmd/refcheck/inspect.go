package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/refcheck/internal/app"
	"github.com/hyperifyio/refcheck/internal/bib"
)

func init() {
	rootCmd.AddCommand(citationsCmd)
	rootCmd.AddCommand(referencesCmd)
}

var citationsCmd = &cobra.Command{
	Use:   "citations <paper.html>",
	Short: "List the in-text citations found in a paper",
	Args:  cobra.ExactArgs(1),
	RunE:  runCitations,
}

var referencesCmd = &cobra.Command{
	Use:   "references <paper.html>",
	Short: "Parse a paper's reference list with anystyle",
	Args:  cobra.ExactArgs(1),
	RunE:  runReferences,
}

// CitationsResult is the JSON printed by the citations command.
type CitationsResult struct {
	Template  string   `json:"template"`
	Citations []string `json:"citations"`
}

func newApp(cmd *cobra.Command, input string) (*app.App, error) {
	cfg, err := resolveConfig(cmd.Flags(), input)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init app: %w", err)
	}
	return a, nil
}

func runCitations(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, args[0])
	if err != nil {
		return err
	}
	defer a.Close()
	tmpl, cites, err := a.Citations()
	if err != nil {
		return err
	}
	if cites == nil {
		cites = []string{}
	}
	return outputJSON(cmd.OutOrStdout(), CitationsResult{Template: string(tmpl), Citations: cites})
}

func runReferences(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, args[0])
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	records, err := a.References(ctx)
	if err != nil {
		return err
	}
	if records == nil {
		records = []bib.Record{}
	}
	return outputJSON(cmd.OutOrStdout(), records)
}
