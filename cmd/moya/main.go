// Command moya is a terminal chat client for the MontyCloud assistant.
//
// Usage:
//
//	moya [flags]
//
// Flags:
//
//	-base-url string   Backend base URL (overrides config)
//	-thread string     Conversation thread ID (overrides config)
//	-config string     Path to config file (default: ~/.moya/config.toml)
//	-export string     Path to save the transcript on exit (overrides config)
//	-debug string      Path to a debug log file (default: logging disabled)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/google/uuid"
	bt "github.com/montycloud/moya/bubbletea"
	"github.com/montycloud/moya/config"
	moyajson "github.com/montycloud/moya/json"
	"github.com/montycloud/moya/session"
	"github.com/montycloud/moya/sse"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "moya: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		baseURL    = flag.String("base-url", "", "Backend base URL (overrides config)")
		threadID   = flag.String("thread", "", "Conversation thread ID (overrides config)")
		configPath = flag.String("config", "", "Path to config file")
		exportPath = flag.String("export", "", "Path to save the transcript on exit (overrides config)")
		debugPath  = flag.String("debug", "", "Path to a debug log file")
	)
	flag.Parse()

	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *baseURL != "" {
		cfg.Server.BaseURL = *baseURL
	}
	if *threadID != "" {
		cfg.Session.ThreadID = *threadID
	}
	if *exportPath != "" {
		cfg.Session.ExportPath = *exportPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(*debugPath)
	if err != nil {
		return err
	}
	defer closeLog()

	// A fresh thread per run unless one was pinned.
	thread := cfg.Session.ThreadID
	if thread == "" {
		thread = uuid.NewString()
	}

	client := sse.New(cfg.Server.BaseURL,
		sse.WithFrameTimeout(cfg.Server.FrameTimeout()),
		sse.WithLogger(logger),
	)
	ctrl := session.New(thread, client,
		session.WithCatalog(client),
		session.WithLogger(logger),
	)

	tuiModel := bt.New(ctrl, cfg.UI.Theme())
	if err := bt.Run(ctx, tuiModel); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}

	// Save transcript on exit when an export path is configured.
	if path := cfg.Session.ExportPath; path != "" {
		msgs := ctrl.Messages()
		if len(msgs) > 0 {
			if err := moyajson.Save(path, thread, msgs); err != nil {
				return fmt.Errorf("save transcript: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Transcript saved to %s\n", path)
		}
	}

	return nil
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// newLogger opens a file-backed logger. Logging to stderr would corrupt
// the TUI, so without a debug path the logger discards everything.
func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open debug log: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { file.Close() }, nil
}
