package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/refcheck/internal/ledger"
)

var historyLimit int
var historyHuman bool

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of recent runs to show")
	historyCmd.Flags().BoolVar(&historyHuman, "human", false, "Use human-readable output instead of JSON")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs and the most frequent warnings from the ledger",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

// HistoryResult is the JSON printed by the history command.
type HistoryResult struct {
	Runs  []HistoryRun       `json:"runs"`
	Kinds []ledger.KindCount `json:"kinds"`
}

// HistoryRun is one ledger row.
type HistoryRun struct {
	ID         int64    `json:"id"`
	Input      string   `json:"input"`
	SHA256     string   `json:"input_sha256"`
	Template   string   `json:"template"`
	References int      `json:"references"`
	Citations  int      `json:"citations"`
	Warnings   []string `json:"warnings"`
	At         string   `json:"at"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd.Flags(), "")
	if err != nil {
		return err
	}
	if cfg.LedgerPath == "" {
		return errors.New("history: no ledger configured (use --ledger or REFCHECK_LEDGER)")
	}
	db, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runs, err := db.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	kinds, err := db.Kinds(ctx)
	if err != nil {
		return err
	}
	if historyHuman {
		printHistory(cmd.OutOrStdout(), runs, kinds)
		return nil
	}
	res := HistoryResult{Runs: []HistoryRun{}, Kinds: kinds}
	if res.Kinds == nil {
		res.Kinds = []ledger.KindCount{}
	}
	for _, r := range runs {
		w := r.Warnings
		if w == nil {
			w = []string{}
		}
		res.Runs = append(res.Runs, HistoryRun{
			ID: r.ID, Input: r.Input, SHA256: r.InputSHA256, Template: r.Template,
			References: r.References, Citations: r.Citations, Warnings: w,
			At: r.At.Format(time.RFC3339),
		})
	}
	return outputJSON(cmd.OutOrStdout(), res)
}

func printHistory(w io.Writer, runs []ledger.Run, kinds []ledger.KindCount) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-5s  %s  refs=%d cites=%d", r.At.Format("2006-01-02 15:04"), r.Template, r.Input, r.References, r.Citations)
		if len(r.Warnings) > 0 {
			fmt.Fprintf(w, "  warnings=%s", strings.Join(r.Warnings, ","))
		}
		fmt.Fprintln(w)
	}
	if len(kinds) > 0 {
		fmt.Fprintln(w, "\nMost frequent warnings:")
		for _, k := range kinds {
			fmt.Fprintf(w, "  %-45s %d\n", k.Name, k.Count)
		}
	}
}
