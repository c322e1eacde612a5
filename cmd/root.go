package cmd

import (
	"fmt"

	"chatwidget/internal/clipboard"
	"chatwidget/internal/config"
	"chatwidget/internal/export"
	"chatwidget/internal/render"
	"chatwidget/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:   "chatwidget",
	Short: "Chat with a simulated assistant from the terminal or a served page",
	Long: `ChatWidget keeps a local conversation with a simulated assistant.
Slash commands (/clear, /export, /help) are available from the composer,
and every message is snapshotted into a local history you can reload.

Run without a subcommand for the terminal UI, or use "serve" for the
marketing page with the embedded widget.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.Close()

		exporter, err := export.New(env.cfg.ExportDir)
		if err != nil {
			return fmt.Errorf("creating exporter: %w", err)
		}
		ctrl := env.controller(exporter)

		model := ui.NewModel(ctrl, ui.Options{
			Context:   cmd.Context(),
			Renderer:  render.NewTerminal(env.cfg.GlamourStyle),
			Clipboard: clipboard.System(),
		})
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running terminal ui: %w", err)
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFileName, "config file path")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep history in memory only")
}
