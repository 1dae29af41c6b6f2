package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cli/browser"
	"github.com/spf13/cobra"

	"github.com/Zachdehooge/crossing-dashboard/internal/app"
	"github.com/Zachdehooge/crossing-dashboard/internal/config"
	"github.com/Zachdehooge/crossing-dashboard/internal/fetcher"
	"github.com/Zachdehooge/crossing-dashboard/internal/generator"
	"github.com/Zachdehooge/crossing-dashboard/internal/metrics"
	"github.com/Zachdehooge/crossing-dashboard/internal/prefs"
	"github.com/Zachdehooge/crossing-dashboard/internal/preview"
	"github.com/Zachdehooge/crossing-dashboard/internal/refresh"
)

var (
	configPath string
	apiURL     string
	logLevel   string

	outputFile string
	verbose    bool
	interval   int
	watchMode  bool
	pageParam  string
	openPage   bool
	serveAddr  string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree with its flags bound to the package vars.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "crossing-dashboard",
		Short: "Render the level crossing status page",
		Long: `Crossing Dashboard fetches upcoming train arrivals for a level crossing
and renders a status page with a countdown to the next train and the gate state.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(cmd)
			if err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}

			// Generate the page once
			if err := generateCrossingHTML(ctx, cmd, cfg); err != nil {
				cmd.PrintErrln(fmt.Errorf("failed to generate crossing page: %w", err))
				os.Exit(1)
			}

			if openPage {
				openRendered(cmd, cfg)
			}

			// Watch mode
			if watchMode {
				if err := runWatchMode(ctx, cmd, cfg); err != nil {
					cmd.PrintErrln(fmt.Errorf("watch mode failed: %w", err))
					os.Exit(1)
				}
			}
		},
	}

	// Flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Train API endpoint (overrides CROSSING_API_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "crossing.html", "Output HTML file path")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.Flags().IntVarP(&interval, "interval", "i", 0, "Auto-refresh interval in seconds (10-300, default: stored preference)")
	rootCmd.Flags().BoolVar(&watchMode, "watch", false, "Keep the page live: countdown, relative times and auto-refresh")
	rootCmd.Flags().StringVar(&pageParam, "page", "1", "Page of the train list to render")
	rootCmd.Flags().BoolVar(&openPage, "open", false, "Open the rendered page in a browser")
	rootCmd.Flags().StringVar(&serveAddr, "serve", "", "Serve the page, /healthz and /metrics on this address in watch mode")

	// Additional commands
	addBoardCmd(rootCmd)
	addListCmd(rootCmd)
	addPrefsCmd(rootCmd)

	return rootCmd
}

// loadConfig layers command-line flags over config.Load.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = apiURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = config.ParseLogLevel(logLevel, cfg.LogLevel)
	}
	if f := flags.Lookup("output"); f != nil && f.Changed {
		cfg.OutputFile = outputFile
	}
	if f := flags.Lookup("serve"); f != nil && f.Changed {
		cfg.ServeAddr = serveAddr
	}
	return cfg, nil
}

// openPrefs opens the configured preference backend. The returned watcher is
// nil for backends that cannot report outside changes.
func openPrefs(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*prefs.Store, app.PrefsWatcher, error) {
	backend, err := prefs.OpenBackend(ctx, prefs.BackendConfig{
		Kind:          cfg.PrefsBackend,
		Path:          cfg.PrefsPath,
		SQLitePath:    cfg.PrefsSQLitePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open preferences: %w", err)
	}

	var watcher app.PrefsWatcher
	if fb, ok := backend.(*prefs.FileBackend); ok {
		watcher = fb
	}
	return prefs.NewStore(backend, logger), watcher, nil
}

func newSession(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, opts app.Options) (*app.Session, *prefs.Store, error) {
	store, watcher, err := openPrefs(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	opts.Config = cfg
	opts.Source = fetcher.NewClient(cfg.APIURL, cfg.RequestTimeout)
	opts.Prefs = store
	opts.Watcher = watcher
	opts.Metrics = m
	opts.Page = refresh.ParsePage(pageParam)
	opts.Interval = interval
	return app.NewSession(opts, logger), store, nil
}

// generateCrossingHTML fetches once and writes the page
func generateCrossingHTML(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	if verbose {
		cmd.Println(fmt.Sprintf("Fetching trains from %s...", cfg.APIURL))
	}

	logger := cfg.NewLogger()
	session, store, err := newSession(ctx, cfg, logger, nil, app.Options{
		Writer: generator.NewPageWriter(cfg.OutputFile, cfg.HTMLReloadSeconds),
		Once:   true,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	if verbose {
		cmd.Println(fmt.Sprintf("Generating HTML to %s...", cfg.OutputFile))
	}
	if err := session.Run(ctx); err != nil {
		return err
	}

	cmd.Println(fmt.Sprintf("Crossing status saved to %s", cfg.OutputFile))
	return nil
}

// runWatchMode keeps a session alive and rewrites the page on every change
func runWatchMode(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	logger := cfg.NewLogger()
	m := metrics.New()

	reload := cfg.HTMLReloadSeconds
	if reload == 0 {
		reload = 5
	}
	session, store, err := newSession(ctx, cfg, logger, m, app.Options{
		Writer: generator.NewPageWriter(cfg.OutputFile, reload),
	})
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.ServeAddr != "" {
		srv := preview.New(cfg.ServeAddr, cfg.OutputFile, m.Handler(), cfg.ShutdownTimeout, logger)
		go srv.Run(ctx)
		cmd.Println(fmt.Sprintf("Open at http://%s/", displayAddr(cfg.ServeAddr)))
	}

	cmd.Println("Watch mode activated. Press Ctrl+C to stop.")
	return session.Run(ctx)
}

func openRendered(cmd *cobra.Command, cfg *config.Config) {
	var err error
	if watchMode && cfg.ServeAddr != "" {
		err = browser.OpenURL(fmt.Sprintf("http://%s/", displayAddr(cfg.ServeAddr)))
	} else {
		path, absErr := filepath.Abs(cfg.OutputFile)
		if absErr != nil {
			path = cfg.OutputFile
		}
		err = browser.OpenFile(path)
	}
	if err != nil {
		cmd.PrintErrln(fmt.Errorf("failed to open browser: %w", err))
	}
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

// discardLogger is used where log lines would corrupt the terminal.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
