package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/qbench/internal/report"
)

type reportOptions struct {
	resultsFile string
	humanEval   string
	categories  string
	outputFile  string
	format      string
}

func newReportCmd(st *cliState) *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Analyze a results CSV by difficulty, expertise, and category",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.resultsFile, "results", "", "path to the results CSV file")
	cmd.Flags().StringVar(&opts.humanEval, "human-eval", "", "human evaluation CSV path (overrides config)")
	cmd.Flags().StringVar(&opts.categories, "categories", "", "category CSV path (overrides config)")
	cmd.Flags().StringVar(&opts.outputFile, "output", "", "also write the report to this file")
	cmd.Flags().StringVar(&opts.format, "format", "text", "output format: text|json")

	return cmd
}

func runReport(cmd *cobra.Command, st *cliState, opts *reportOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("report: missing config (internal error)")
	}
	if strings.TrimSpace(opts.resultsFile) == "" {
		return fmt.Errorf("report: missing --results")
	}

	items, err := report.Load(
		opts.resultsFile,
		annotationPath(opts.humanEval, st.cfg.Dataset.HumanEval),
		annotationPath(opts.categories, st.cfg.Dataset.Categories),
	)
	if err != nil {
		return err
	}

	analysis := report.Analyze(items)
	title := fmt.Sprintf("benchmark results analysis: %s", filepath.Base(opts.resultsFile))

	var rendered strings.Builder
	switch strings.ToLower(strings.TrimSpace(opts.format)) {
	case "", "text":
		if err := report.Render(&rendered, analysis, title); err != nil {
			return err
		}
	case "json":
		enc := json.NewEncoder(&rendered)
		enc.SetIndent("", "  ")
		if err := enc.Encode(analysis); err != nil {
			return err
		}
	default:
		return fmt.Errorf("report: invalid --format %q (expected text|json)", opts.format)
	}

	fmt.Fprint(cmd.OutOrStdout(), rendered.String())

	if path := strings.TrimSpace(opts.outputFile); path != "" {
		if err := os.WriteFile(path, []byte(rendered.String()), 0o644); err != nil {
			return fmt.Errorf("report: write %q: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report saved to %s\n", path)
	}
	return nil
}

// annotationPath picks the flag value when given. A path that only comes
// from config defaults is dropped when the file does not exist, so plain
// result CSVs can still be analyzed.
func annotationPath(flagValue, cfgValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	v := strings.TrimSpace(cfgValue)
	if v == "" {
		return ""
	}
	if _, err := os.Stat(v); os.IsNotExist(err) {
		return ""
	}
	return v
}
