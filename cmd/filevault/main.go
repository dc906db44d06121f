package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/filevault/filevault/internal/client"
	"github.com/filevault/filevault/internal/config"
	"github.com/filevault/filevault/internal/logging"
	"github.com/filevault/filevault/internal/tui"
)

func main() {
	exePath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	configPath := flag.String("config", filepath.Join(filepath.Dir(exePath), "filevault.yaml"), "path to the YAML configuration file")
	baseURL := flag.String("url", "", "server base URL (overrides client.base_url)")
	downloadDir := flag.String("download-dir", "", "directory for downloaded files (overrides client.download_directory)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.Client.BaseURL = *baseURL
	}
	if *downloadDir != "" {
		cfg.Client.DownloadDirectory = *downloadDir
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere.
	if cfg.Client.LogFile != "" {
		if err := logging.Init(logging.Config{
			Level:      cfg.Logging.Level,
			Format:     "console",
			OutputPath: cfg.Client.LogFile,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
			os.Exit(1)
		}
	} else {
		logging.SetLogger(zap.NewNop())
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	model := tui.New(tui.Options{
		Transport:   client.New(client.Config{BaseURL: cfg.Client.BaseURL}),
		Context:     ctx,
		Timeout:     cfg.ClientTimeout(),
		DownloadDir: cfg.Client.DownloadDirectory,
		ServerURL:   cfg.Client.BaseURL,
	})

	logging.Info("starting front-end", logging.String("server", cfg.Client.BaseURL))
	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		logging.Error("front-end exited", logging.Err(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
