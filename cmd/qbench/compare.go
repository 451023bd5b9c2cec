package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/qbench/internal/report"
)

type compareOptions struct {
	results1   string
	results2   string
	label1     string
	label2     string
	humanEval  string
	categories string
}

func newCompareCmd(st *cliState) *cobra.Command {
	var opts compareOptions

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two results CSVs, for example zeroshot vs zeroshot-cot",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.results1, "results1", "", "path to the first results CSV")
	cmd.Flags().StringVar(&opts.results2, "results2", "", "path to the second results CSV")
	cmd.Flags().StringVar(&opts.label1, "label1", "Run 1", "label for the first results")
	cmd.Flags().StringVar(&opts.label2, "label2", "Run 2", "label for the second results")
	cmd.Flags().StringVar(&opts.humanEval, "human-eval", "", "human evaluation CSV path (overrides config)")
	cmd.Flags().StringVar(&opts.categories, "categories", "", "category CSV path (overrides config)")

	return cmd
}

func runCompare(cmd *cobra.Command, st *cliState, opts *compareOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("compare: missing config (internal error)")
	}
	if strings.TrimSpace(opts.results1) == "" || strings.TrimSpace(opts.results2) == "" {
		return fmt.Errorf("compare: missing --results1 or --results2")
	}

	humanEval := annotationPath(opts.humanEval, st.cfg.Dataset.HumanEval)
	categories := annotationPath(opts.categories, st.cfg.Dataset.Categories)

	items1, err := report.Load(opts.results1, humanEval, categories)
	if err != nil {
		return err
	}
	items2, err := report.Load(opts.results2, humanEval, categories)
	if err != nil {
		return err
	}

	c := report.Compare(items1, items2, opts.label1, opts.label2)
	return report.RenderComparison(cmd.OutOrStdout(), c)
}
