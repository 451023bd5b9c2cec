package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/qbench/internal/leaderboard"
)

type leaderboardOptions struct {
	problem string
	model   string
	top     int
	format  string
}

func newLeaderboardCmd(st *cliState) *cobra.Command {
	var opts leaderboardOptions

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show recorded benchmark runs ranked by accuracy",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboardCmd(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.problem, "problem", "", "problem name (defaults to config)")
	cmd.Flags().StringVar(&opts.model, "model", "", "show the run history of one model instead")
	cmd.Flags().IntVar(&opts.top, "top", 20, "top N entries")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table|json")

	return cmd
}

func runLeaderboardCmd(cmd *cobra.Command, st *cliState, opts *leaderboardOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("leaderboard: missing config (internal error)")
	}

	problem := orConfig(opts.problem, st.cfg.Dataset.Problem)
	if problem == "" {
		return fmt.Errorf("leaderboard: missing --problem")
	}

	lb, err := openLeaderboardStore(st.cfg)
	if err != nil {
		return err
	}
	defer lb.Close()

	var entries []leaderboard.Entry
	if model := strings.TrimSpace(opts.model); model != "" {
		entries, err = lb.ModelHistory(cmd.Context(), model, problem)
	} else {
		entries, err = lb.List(cmd.Context(), problem, opts.top)
	}
	if err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(opts.format)) {
	case "", "table":
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tMODEL\tBACKEND\tPROMPT\tACCURACY\tCORRECT\tTOTAL\tDATE")
		for i, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f%%\t%d\t%d\t%s\n",
				i+1,
				e.Model,
				e.Backend,
				e.PromptMode,
				e.Accuracy*100,
				e.Correct,
				e.Total,
				e.EvalDate.UTC().Format("2006-01-02 15:04:05Z"),
			)
		}
		return tw.Flush()
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	default:
		return fmt.Errorf("leaderboard: invalid --format %q (expected table|json)", opts.format)
	}
}
