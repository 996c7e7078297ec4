// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/tariel/internal/config"
	"github.com/jeranaias/tariel/internal/storage"
	"github.com/jeranaias/tariel/internal/util"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List and export archived transcripts",
		Long: `Every successful exchange is archived on this device under
~/.tariel/history, one transcript per session.`,
	}
	cmd.AddCommand(newHistoryListCmd(), newHistoryExportCmd())
	return cmd
}

func openTranscripts() (*storage.TranscriptStore, error) {
	dir, err := config.HistoryDir()
	if err != nil {
		return nil, err
	}
	return storage.NewTranscriptStore(dir)
}

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived transcripts, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := openTranscripts()
			if err != nil {
				return err
			}
			metas, err := ts.List()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), storage.FormatList(metas))
			return nil
		},
	}
}

func newHistoryExportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a transcript as markdown, JSON or YAML",
		Example: `  tariel history export lq3k2x-4f9a0b1c2d --format yaml
  tariel history export lq3k2x-4f9a0b1c2d --output session.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := openTranscripts()
			if err != nil {
				return err
			}
			t, err := ts.Load(args[0])
			if errors.Is(err, storage.ErrNotFound) {
				return errors.Errorf("no transcript for session %s", args[0])
			}
			if err != nil {
				return err
			}

			data, err := t.Export(format)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := util.AtomicWriteFile(output, data, 0o600); err != nil {
				return errors.Wrapf(err, "write %s", output)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d messages to %s\n", len(t.Messages), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", storage.FormatMarkdown, "Export format: md, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}
