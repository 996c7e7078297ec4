// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/tariel/internal/config"
)

// Version information (set at build time).
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// rootOptions holds global flags and the configuration they produce.
type rootOptions struct {
	configPath string
	endpoint   string
	verbose    bool

	cfg *config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "tariel",
		Short: "Terminal client for a quota-gated conversational assistant",
		Long: `tariel talks to a remote conversational assistant from the terminal.

Each session on this device has an opaque identity and a fixed number of
calls. Start a new session to reset the count. Replies are revealed
progressively and tables in replies are drawn as grids.

Quick Start:
  tariel                         # open the chat view
  tariel ask "What is a stablecoin?"
  tariel session new             # rotate to a fresh session
  tariel history export <id> --format md`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(cmd.OutOrStdout()) || !isTerminal(cmd.InOrStdin()) {
				return cmd.Help()
			}
			return runTUI(cmd.Context(), opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default ~/.tariel/config.toml)")
	root.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "", "Chat endpoint URL (overrides config)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newChatCmd(opts),
		newAskCmd(opts),
		newSessionCmd(opts),
		newHistoryCmd(opts),
	)
	return root
}

// Execute runs the command tree and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (o *rootOptions) loadConfig() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.endpoint != "" {
		cfg.Endpoint.URL = o.endpoint
		if err := cfg.Validate(); err != nil {
			return errors.Wrap(err, "invalid --endpoint")
		}
	}
	o.cfg = cfg
	config.SetGlobal(cfg)
	return nil
}
