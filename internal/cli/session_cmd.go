// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/tariel/internal/storage"
)

func newSessionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show or rotate the session identity on this device",
		Long: `Manage the session identity persisted on this device.

Call counts live only in memory, so a fresh process always starts a session
with its full allowance.`,
	}
	cmd.AddCommand(
		newSessionShowCmd(opts),
		newSessionNewCmd(opts),
		newSessionDeleteCmd(opts),
	)
	return cmd
}

func newSessionShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.open(modeCLI)
			if err != nil {
				return err
			}
			defer app.Close()

			id := app.Store.Current()
			if id == "" {
				return errors.New("session storage is unavailable")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session:   %s\n", id)
			fmt.Fprintf(out, "Calls:     %d/%d\n", app.Store.CurrentCalls(id), app.Store.Ceiling())
			fmt.Fprintf(out, "Remaining: %d\n", app.Store.RemainingCalls(id))
			fmt.Fprintf(out, "Backend:   %s\n", app.Config.Session.Backend)
			return nil
		},
	}
}

func newSessionNewCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.open(modeCLI)
			if err != nil {
				return err
			}
			defer app.Close()

			id := app.Store.NewSession()
			if id == "" {
				return errors.New("could not start a new session")
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newSessionDeleteCmd(opts *rootOptions) *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the current session and start a new one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.open(modeCLI)
			if err != nil {
				return err
			}
			defer app.Close()

			old := app.Store.Current()
			if old == "" {
				return errors.New("session storage is unavailable")
			}
			app.Store.DeleteSession(old)

			if purge && app.Transcripts != nil {
				if err := app.Transcripts.Delete(old); err != nil && !errors.Is(err, storage.ErrNotFound) {
					return errors.Wrap(err, "delete transcript")
				}
			}

			id := app.Store.NewSession()
			if id == "" {
				return errors.New("could not start a new session")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Deleted %s\n", old)
			fmt.Fprintln(out, id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "Also delete the session's archived transcript")
	return cmd
}
