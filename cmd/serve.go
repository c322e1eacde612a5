package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatwidget/internal/config"
	"chatwidget/internal/server"

	"github.com/spf13/cobra"
)

var (
	serveAddr     string
	serveAllowAll bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the marketing page with the chat widget",
	Long: `Starts an HTTP server for the marketing page. The page's scroll, menu,
lightbox and contact form handlers run on the server, and the conversation
is shared with every open page over a websocket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setupWith(cmd.Context(), true, func(c *config.Config) {
			if serveAddr != "" {
				c.Addr = serveAddr
			}
		})
		if err != nil {
			return err
		}
		defer env.Close()

		srv := server.New(server.Config{
			Addr:           env.cfg.Addr,
			AllowAll:       serveAllowAll,
			HighlightStyle: env.cfg.HighlightStyle,
			ResponseDelay:  env.cfg.ResponseDelay,
		}, env.state, env.logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				env.logger.Warn("shutdown", "error", err)
			}
		}()

		fmt.Fprintf(os.Stderr, "chatwidget %s serving on http://%s\n", Version, env.cfg.Addr)
		fmt.Fprintf(os.Stderr, "  History: %s\n", storageLabel(env))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	},
}

func storageLabel(env *runEnv) string {
	if env.cfg.Ephemeral {
		return "memory"
	}
	return env.cfg.DBPath
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all-origins", false, "allow cross-origin requests from any origin")
	rootCmd.AddCommand(serveCmd)
}
