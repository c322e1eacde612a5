package cmd

import (
	"errors"
	"fmt"

	"chatwidget/internal/chat"
	"chatwidget/internal/export"
	"chatwidget/internal/history"

	"github.com/spf13/cobra"
)

var exportSession int64

var errNoSession = errors.New("no stored session")

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a stored session to chat-history.txt",
	Long: `Writes the messages of a stored session to chat-history.txt in the
export directory. Without --session the most recent session is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.Close()

		sessions := env.state.History()
		var (
			session chat.Session
			ok      bool
		)
		if cmd.Flags().Changed("session") {
			session, ok = history.Find(sessions, exportSession)
			if !ok {
				return fmt.Errorf("%w with id %d", errNoSession, exportSession)
			}
		} else if session, ok = history.Latest(sessions); !ok {
			return errNoSession
		}

		exporter, err := export.New(env.cfg.ExportDir)
		if err != nil {
			return fmt.Errorf("creating exporter: %w", err)
		}
		path, err := exporter.Export(cmd.Context(), session.Messages)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().Int64Var(&exportSession, "session", 0, "session id to export (default: latest)")
	rootCmd.AddCommand(exportCmd)
}
