// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/tariel/internal/chat"
	"github.com/jeranaias/tariel/internal/config"
	"github.com/jeranaias/tariel/internal/render"
	"github.com/jeranaias/tariel/internal/segment"
)

const historyFileName = "chat_history"

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat line by line in the terminal",
		Long: `Start a line-oriented chat in the current session.

Commands:
  /new      start a new session
  /delete   delete the current session and start a new one
  /status   show the session and its remaining calls
  /help     show these commands
  /quit     leave (Ctrl+D works too)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.open(modeCLI)
			if err != nil {
				return err
			}
			defer app.Close()

			r := newREPL(app, cmd.OutOrStdout())
			r.animate = isTerminal(cmd.OutOrStdout())
			return r.Run(cmd.Context())
		},
	}
}

// =============================================================================
// REPL
// =============================================================================

// repl is the line-oriented chat loop.
type repl struct {
	app       *App
	out       io.Writer
	conv      chat.Conversation
	presenter *render.Presenter
	formatter *render.Formatter

	// animate reveals replies progressively instead of printing them whole.
	animate bool
}

func newREPL(app *App, out io.Writer) *repl {
	return &repl{
		app:       app,
		out:       out,
		conv:      chat.NewConversation(app.Store.Current(), app.System),
		presenter: render.NewPresenter(app.Config.Render.Tick(), render.WithPresenterLogger(app.Logger)),
		formatter: newFormatter(app, out),
	}
}

// Run reads lines until /quit, Ctrl+C at the prompt or end of input.
func (r *repl) Run(ctx context.Context) error {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	historyFile := ""
	if dir, err := config.ConfigDir(); err == nil {
		historyFile = filepath.Join(dir, historyFileName)
		if f, err := os.Open(historyFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	defer func() {
		if historyFile == "" {
			return
		}
		if f, err := os.OpenFile(historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	r.printStatus()
	fmt.Fprintln(r.out, labelStyle.Render("Type /help for commands."))

	for {
		input, err := line.Prompt(r.prompt())
		if err != nil {
			// liner.ErrPromptAborted (Ctrl+C) or io.EOF (Ctrl+D).
			fmt.Fprintln(r.out)
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if quit := r.handle(ctx, input); quit {
			return nil
		}
	}
}

func (r *repl) prompt() string {
	store := r.app.Store
	return fmt.Sprintf("tariel [%d/%d]> ", store.CurrentCalls(r.conv.SessionID), store.Ceiling())
}

// handle runs one line of input and reports whether to quit.
func (r *repl) handle(ctx context.Context, input string) bool {
	switch input {
	case "/quit", "/exit":
		return true
	case "/new":
		r.switchTo(r.app.Store.NewSession())
		r.printStatus()
	case "/delete":
		r.app.Store.DeleteSession(r.conv.SessionID)
		r.switchTo(r.app.Store.NewSession())
		fmt.Fprintln(r.out, noticeStyle.Render("Session deleted."))
		r.printStatus()
	case "/status":
		r.printStatus()
	case "/help":
		fmt.Fprintln(r.out, "/new /delete /status /help /quit")
	default:
		if strings.HasPrefix(input, "/") {
			fmt.Fprintln(r.out, errorStyle.Render("Unknown command "+input+". Type /help."))
			return false
		}
		r.send(ctx, input)
	}
	return false
}

func (r *repl) switchTo(id string) {
	r.presenter.Stop()
	r.formatter.Reset()
	r.conv = chat.NewConversation(id, r.app.System)
}

func (r *repl) printStatus() {
	id := r.conv.SessionID
	if id == "" {
		fmt.Fprintln(r.out, errorStyle.Render("No session: session storage is unavailable."))
		return
	}
	store := r.app.Store
	fmt.Fprintf(r.out, "%s %s  %s %d/%d\n",
		labelStyle.Render("session"), id,
		labelStyle.Render("calls"), store.CurrentCalls(id), store.Ceiling())
}

// send performs one exchange. Ctrl+C while waiting cancels the request.
func (r *repl) send(ctx context.Context, text string) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	res, err := chat.SendWithRetry(ctx, r.app.Orchestrator, r.app.Retry, r.conv.SessionID, text, r.conv.Context)
	if err != nil {
		fmt.Fprintln(r.out, errorStyle.Render(chat.UserMessage(err)))
		return
	}
	conv, ok := r.conv.Apply(res)
	if !ok {
		return
	}
	r.conv = conv
	r.app.archive(res)
	r.show(ctx, res.Response)
}

// show prints a reply. In a terminal the text is revealed progressively and
// its tables are then drawn as grids below it.
func (r *repl) show(ctx context.Context, text string) {
	fmt.Fprintln(r.out, assistantStyle.Render("Assistant"))
	if !r.animate {
		fmt.Fprintln(r.out, r.formatter.Render(text, true))
		return
	}

	printed := 0
	r.presenter.Present(ctx, text, r.app.Config.Render.Speed, func(visible string) {
		fmt.Fprint(r.out, visible[printed:])
		printed = len(visible)
	}, nil)
	r.presenter.Wait()
	r.presenter.Stop()
	fmt.Fprintln(r.out)

	for _, seg := range segment.Split(text) {
		if seg.Kind == segment.Table {
			fmt.Fprintln(r.out, r.formatter.RenderSegment(seg))
		}
	}
}
