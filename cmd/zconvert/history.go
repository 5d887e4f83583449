// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/zconvert/internal/history"
	"github.com/pdiddy/zconvert/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversions",
	Long: `History lists conversions recorded by serve and convert, newest first.
Use --summary for counts by status, strategy and category, or --export to
dump the whole history as YAML or JSON on stdout.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 0, "number of conversions to list (default: history.max_results)")
	historyCmd.Flags().Bool("summary", false, "print aggregate counts instead of a listing")
	historyCmd.Flags().String("export", "", "export the full history: yaml or json")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if !appConfig.History.Enabled {
		return fmt.Errorf("history is disabled (history.enabled: false)")
	}
	store, err := history.Open(appConfig.History)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	if format, _ := cmd.Flags().GetString("export"); format != "" {
		return store.Export(ctx, w, format)
	}
	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		return printSummary(ctx, w, store)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	recs, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	printRecords(w, recs)
	return nil
}

func printRecords(w io.Writer, recs []types.ConversionRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No conversions recorded.")
		return
	}

	fmt.Fprintf(w, "%-20s  %-30s  %-9s  %-9s  %-11s  %s\n",
		"Time", "File", "Pair", "Status", "Strategy", "Duration")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, r := range recs {
		name := r.OriginalFilename
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		strategy := r.Strategy
		if strategy == "" {
			strategy = "-"
		}
		fmt.Fprintf(w, "%-20s  %-30s  %-9s  %-9s  %-11s  %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			name,
			r.SourceFormat+">"+r.TargetFormat,
			r.Status,
			strategy,
			r.Duration.Round(time.Millisecond),
		)
		if r.Error != "" {
			fmt.Fprintf(w, "%-20s  error: %s\n", "", r.Error)
		}
	}

	fmt.Fprintf(w, "\n%d conversions\n", len(recs))
}

func printSummary(ctx context.Context, w io.Writer, store *history.Store) error {
	sum, err := store.Summary(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Total conversions: %d\n", sum.Total)
	fmt.Fprintf(w, "Output written:    %.1f MB\n", float64(sum.OutputBytes)/(1024*1024))
	for _, group := range []struct {
		title  string
		counts map[string]int
	}{
		{"By status", sum.ByStatus},
		{"By strategy", sum.ByStrategy},
		{"By category", sum.ByCategory},
	} {
		fmt.Fprintf(w, "\n%s:\n", group.title)
		keys := make([]string, 0, len(group.counts))
		for k := range group.counts {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %-12s %d\n", k, group.counts[k])
		}
	}
	return nil
}
