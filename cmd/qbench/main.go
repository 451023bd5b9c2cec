package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/qbench/internal/config"
)

type cliState struct {
	configPath string
	cfg        *config.Config
}

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderrWriter, err)
		osExit(1)
	}
}

func newRootCmd() *cobra.Command {
	st := &cliState{configPath: config.DefaultPath}

	root := &cobra.Command{
		Use:           "qbench",
		Short:         "Run multiple-choice LLM benchmarks and analyze the results",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", st.configPath, "path to config file")

	root.AddCommand(newRunCmd(st))
	root.AddCommand(newReportCmd(st))
	root.AddCommand(newCompareCmd(st))
	root.AddCommand(newLeaderboardCmd(st))
	root.AddCommand(newServeCmd(st))
	return root
}

// load reads the config file, falling back to built-in defaults when the
// default path does not exist. An explicitly given path must exist.
func (st *cliState) load() error {
	path := strings.TrimSpace(st.configPath)
	if path == "" || path == config.DefaultPath {
		if _, err := os.Stat(config.DefaultPath); os.IsNotExist(err) {
			st.cfg = config.Default()
			return nil
		}
		path = config.DefaultPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	st.cfg = cfg
	return nil
}
