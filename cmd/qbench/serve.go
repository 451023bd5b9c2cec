package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/qbench/api"
)

type serveOptions struct {
	addr string
}

func newServeCmd(st *cliState) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the leaderboard and results over HTTP",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func runServe(st *cliState, opts *serveOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("serve: missing config (internal error)")
	}

	lb, err := openLeaderboardStore(st.cfg)
	if err != nil {
		return err
	}
	defer lb.Close()

	srv, err := api.NewServer(st.cfg, lb)
	if err != nil {
		return err
	}

	addr := strings.TrimSpace(opts.addr)
	if addr == "" {
		addr = st.cfg.Server.Addr
	}
	return srv.Run(addr)
}
