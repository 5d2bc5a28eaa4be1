// # cmd/pyoutline/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pyoutline/internal/app"
	"pyoutline/internal/config"
	"pyoutline/internal/history"
	"pyoutline/internal/shared/observability"
	"pyoutline/internal/watcher"
)

var (
	configPath = flag.String("config", "./pyoutline.toml", "Path to config file")
	once       = flag.Bool("once", false, "Run a single scan, print outlines and exit")
	watch      = flag.Bool("watch", false, "Keep running and re-outline files on change")
	backend    = flag.String("backend", "", "Override analysis backend (grammar-tree | native-ast)")
	trends     = flag.Bool("trends", false, "Print a trend report from the history database and exit")
	trendSpan  = flag.Duration("trend-window", 24*time.Hour, "Moving-average window for the trend report")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("pyoutline v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	// Positional paths override the configured scan roots.
	if args := flag.Args(); len(args) > 0 {
		cfg.WatchPaths = args
	}

	if *trends {
		if err := printTrends(cfg, *trendSpan); err != nil {
			slog.Error("failed to build trend report", "error", err)
			os.Exit(1)
		}
		return
	}

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Endpoint != "" {
		shutdown, err := observability.InitTracing(ctx, cfg.Tracing.Endpoint, VERSION)
		if err != nil {
			slog.Error("failed to initialize tracing", "error", err)
			os.Exit(1)
		}
		defer shutdown(context.Background())
	}

	if cfg.Metrics.Addr != "" {
		srv := observability.NewServer(cfg.Metrics.Addr, a.Health)
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			os.Exit(1)
		}
		defer srv.Stop(context.Background())
	}

	if err := a.InitialScan(ctx); err != nil {
		slog.Error("initial scan failed", "error", err)
		os.Exit(1)
	}

	if *once || !*watch {
		printOutlines(a)
		return
	}

	w, err := watcher.NewWatcher(cfg.Watch.Debounce, cfg.Exclude.Dirs, cfg.Exclude.Files, a.HandleChanges)
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}
	defer w.Close()

	if err := w.Watch(cfg.WatchPaths); err != nil {
		slog.Error("failed to watch paths", "error", err)
		os.Exit(1)
	}

	slog.Info("watching for changes", "paths", cfg.WatchPaths)
	<-ctx.Done()
	slog.Info("shutting down")
}

// loadConfig falls back to defaults when the default config file is absent;
// an explicitly named file must exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if os.IsNotExist(err) && !flagPassed("config") {
		return config.Default(), nil
	}
	return nil, err
}

func flagPassed(name string) bool {
	passed := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}

// printTrends reports how the recorded symbol population evolved across
// scans, as indented JSON on stdout.
func printTrends(cfg *config.Config, window time.Duration) error {
	if cfg.History.Path == "" {
		return fmt.Errorf("history is disabled; set history.path in the config")
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	snapshots, err := store.LoadSnapshots(time.Time{})
	if err != nil {
		return err
	}
	report, err := history.BuildTrendReport(snapshots, window)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func printOutlines(a *app.App) {
	for _, path := range a.Files() {
		if node := a.Outline(path); node != nil {
			fmt.Print(node.Dump())
		}
	}
}
