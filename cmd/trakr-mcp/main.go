// Command trakr-mcp exposes the workout log over MCP on stdio. It talks to
// the same hosted lookup and document-store services as the web client; the
// acting user is fixed by TRAKR_USER_ID since stdio has no sign-in flow.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/trakr-app/trakr/internal/config"
	"github.com/trakr-app/trakr/internal/history"
	"github.com/trakr-app/trakr/internal/lookup"
	"github.com/trakr-app/trakr/internal/mcp"
	"github.com/trakr-app/trakr/internal/store"
	"github.com/trakr-app/trakr/internal/submit"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const clientTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// stdout carries the MCP protocol, so logs go to stderr
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	userID := os.Getenv("TRAKR_USER_ID")
	token := os.Getenv("TRAKR_TOKEN")
	if userID == "" {
		log.Warn("TRAKR_USER_ID not set, logging tools will be rejected")
	}

	searcher := lookup.NewClient(cfg.Lookup.BaseURL, clientTimeout, log)
	docs := store.NewClient(cfg.Store.BaseURL, clientTimeout, func() string { return token }, log)

	journal, err := submit.OpenJournal(cfg.State.Dir)
	if err != nil {
		log.Error("failed to open draft journal", "dir", cfg.State.Dir, "error", err)
		os.Exit(1)
	}
	defer journal.Close()

	submitter := submit.New(docs, journal, log)
	hist := history.New(docs, log)

	srv := mcp.New(searcher, submitter, hist, Version, log)

	log.Info("Trakr MCP server starting", "version", Version, "transport", "stdio")
	err = server.ServeStdio(srv, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return mcp.WithUserID(ctx, userID)
	}))
	if err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
