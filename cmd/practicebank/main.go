package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/conorfennell/practicebank/internal/config"
	"github.com/conorfennell/practicebank/internal/fsrs"
	"github.com/conorfennell/practicebank/internal/storage"
	"github.com/conorfennell/practicebank/internal/sync"
	"github.com/conorfennell/practicebank/internal/web"
)

func main() {
	fs := config.Flags()
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	config.SetupLogger(cfg.LogLevel)

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Database opened", "path", cfg.DBPath)

	if cfg.SyncOnStart {
		if err := sync.RunSync(db); err != nil {
			slog.Error("Startup sync failed", "error", err)
			os.Exit(1)
		}
	}

	params := fsrs.DefaultParams()
	params.DesiredRetention = cfg.DesiredRetention

	server := web.NewServer(db, params)
	slog.Info("Listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, server); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
