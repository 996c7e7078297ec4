// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/tariel/internal/chat"
	"github.com/jeranaias/tariel/internal/render"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		newSession bool
		raw        bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question in the current session",
		Long: `Send one question to the assistant in the current session and print the
reply. Tables in the reply are drawn as grids unless --raw is given.`,
		Example: `  tariel ask "Compare USDC and USDT yields by year"
  tariel ask --new "Start fresh: what is a liquidity pool?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.open(modeCLI)
			if err != nil {
				return err
			}
			defer app.Close()

			id := app.Store.Current()
			if newSession {
				id = app.Store.NewSession()
			}
			if id == "" {
				return errors.New("session storage is unavailable")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			conv := chat.NewConversation(id, app.System)
			res, err := chat.SendWithRetry(ctx, app.Orchestrator, app.Retry, id, strings.Join(args, " "), conv.Context)
			if err != nil {
				return errors.New(chat.UserMessage(err))
			}
			if !res.Sent {
				return errors.New("nothing to ask")
			}
			app.archive(res)

			out := cmd.OutOrStdout()
			if raw {
				fmt.Fprintln(out, res.Response)
				return nil
			}
			fmt.Fprintln(out, newFormatter(app, out).Render(res.Response, true))
			return nil
		},
	}

	cmd.Flags().BoolVar(&newSession, "new", false, "Start a new session before asking")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the reply without formatting")
	return cmd
}

// newFormatter renders markdown only when out is a terminal.
func newFormatter(app *App, out any) *render.Formatter {
	width := min(terminalWidth(out), app.Config.Render.WordWrap)
	opts := []render.FormatterOption{render.WithFormatterLogger(app.Logger)}
	if !isTerminal(out) {
		opts = append(opts, render.WithPlainText())
	}
	return render.NewFormatter(width, opts...)
}
