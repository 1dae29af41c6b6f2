package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Zachdehooge/crossing-dashboard/internal/app"
	"github.com/Zachdehooge/crossing-dashboard/internal/config"
	"github.com/Zachdehooge/crossing-dashboard/internal/metrics"
	"github.com/Zachdehooge/crossing-dashboard/internal/preview"
	"github.com/Zachdehooge/crossing-dashboard/internal/tui"
)

// addBoardCmd adds a 'board' subcommand running a live terminal board
func addBoardCmd(rootCmd *cobra.Command) {
	var logFile string

	boardCmd := &cobra.Command{
		Use:   "board",
		Short: "Show a live crossing board in the terminal",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(cmd)
			if err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}

			logger := discardLogger()
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					cmd.PrintErrln(fmt.Errorf("failed to open log file: %w", err))
					os.Exit(1)
				}
				defer f.Close()
				logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.LogLevel}))
			}

			if err := runBoard(ctx, cfg, logger); err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}
		},
	}

	boardCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while the board is open")
	boardCmd.Flags().IntVarP(&interval, "interval", "i", 0, "Auto-refresh interval in seconds (10-300, default: stored preference)")
	boardCmd.Flags().StringVar(&pageParam, "page", "1", "Page of the train list to show")
	boardCmd.Flags().StringVar(&serveAddr, "serve", "", "Also expose /healthz and /metrics on this address")
	rootCmd.AddCommand(boardCmd)
}

func runBoard(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := metrics.New()
	board := tui.NewBoard()
	session, store, err := newSession(ctx, cfg, logger, m, app.Options{Board: board})
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.ServeAddr != "" {
		srv := preview.New(cfg.ServeAddr, cfg.OutputFile, m.Handler(), cfg.ShutdownTimeout, logger)
		go srv.Run(ctx)
	}

	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()

	program := tea.NewProgram(tui.NewModel(board, session), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := program.Run()

	cancel()
	if err := <-done; err != nil {
		return fmt.Errorf("session failed: %w", err)
	}
	if runErr != nil && ctx.Err() == nil {
		return fmt.Errorf("board failed: %w", runErr)
	}
	return nil
}
