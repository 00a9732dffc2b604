package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/1broseidon/tbar/internal/bar"
	"github.com/1broseidon/tbar/internal/config"
	"github.com/1broseidon/tbar/internal/metrics"
	"github.com/1broseidon/tbar/internal/runtimepath"
	"github.com/1broseidon/tbar/internal/x11"
	"golang.org/x/term"
)

const (
	windowName  = "tbar"
	windowClass = "Tbar"
)

func main() {
	os.Exit(run())
}

func run() int {
	bootLogger := newLogger(os.Stderr, "info")

	res, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		return 1
	}
	cfg := res.Config
	logger := newLogger(os.Stderr, cfg.LogLevel)
	if res.File != "" {
		logger.Info("configuration loaded", "file", res.File)
	}

	lockPath, err := runtimepath.LockPath(os.Getenv("DISPLAY"))
	if err != nil {
		logger.Error("failed to resolve lock path", "error", err)
		return 1
	}
	lock, err := runtimepath.Acquire(lockPath)
	if err != nil {
		if errors.Is(err, runtimepath.ErrAlreadyRunning) {
			logger.Error("tbar is already running on this display", "lock", lockPath)
		} else {
			logger.Error("failed to acquire instance lock", "error", err)
		}
		return 1
	}
	defer lock.Release()

	conn, err := x11.NewConnection()
	if err != nil {
		logger.Error("failed to connect to display", "error", err)
		return 1
	}
	if w, h := conn.Screen(); cfg.Width > w || cfg.Height > h {
		logger.Warn("bar is larger than the screen", "bar_width", cfg.Width, "bar_height", cfg.Height, "screen_width", w, "screen_height", h)
	}

	dock, err := x11.CreateDock(conn, dockOptions(cfg, logger))
	if err != nil {
		logger.Error("failed to create dock", "error", err)
		return 1
	}
	defer dock.Destroy()

	if errs := dock.ConfigureAsDock(); len(errs) > 0 {
		logger.Warn("running without full dock support", "failed_hints", len(errs))
	}
	if err := dock.Show(); err != nil {
		logger.Error("failed to show dock", "error", err)
		return 1
	}

	collectors, err := metrics.New(cfg, metrics.Deps{WM: conn, Logger: logger})
	if err != nil {
		logger.Error("failed to build collectors", "error", err)
		return 1
	}
	b, err := bar.New(cfg, collectors, dock, bar.WithLogger(logger))
	if err != nil {
		logger.Error("failed to build bar", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx, bar.Events{Expose: dock.Expose(), Close: dock.CloseRequested()}); err != nil {
		logger.Error("bar stopped on display error", "error", err)
		return 1
	}
	logger.Info("shutting down")
	return 0
}

func dockOptions(cfg *config.Config, logger *slog.Logger) x11.DockOptions {
	return x11.DockOptions{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Background: cfg.Theme.Background,
		Foreground: cfg.Theme.Text,
		Fonts:      cfg.FontNames(),
		Name:       windowName,
		Class:      windowClass,
		Logger:     logger,
	}
}

// newLogger writes human-readable text to a terminal and JSON otherwise,
// e.g. when started from a window manager autostart with output captured.
func newLogger(w io.Writer, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// parseLogLevel converts a config log level to a slog.Level.
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
