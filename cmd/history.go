package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"chatwidget/internal/chat"
	"chatwidget/internal/render"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored chat sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.Close()

		sessions := env.state.History()
		rows := render.HistoryRows(sessions)
		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No stored sessions.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tDETAILS\tFIRST MESSAGE")
		for i, r := range rows {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ID, r.Title, r.Description, preview(sessions[i]))
		}
		return w.Flush()
	},
}

func preview(s chat.Session) string {
	if len(s.Messages) == 0 {
		return ""
	}
	return ansi.Truncate(strings.Join(strings.Fields(s.Messages[0].Content), " "), 40, "...")
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
