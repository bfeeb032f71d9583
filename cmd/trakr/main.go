package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	trakr "github.com/trakr-app/trakr"
	"github.com/trakr-app/trakr/internal/auth"
	"github.com/trakr-app/trakr/internal/config"
	"github.com/trakr-app/trakr/internal/history"
	"github.com/trakr-app/trakr/internal/lookup"
	"github.com/trakr-app/trakr/internal/server"
	"github.com/trakr-app/trakr/internal/store"
	"github.com/trakr-app/trakr/internal/submit"
	"github.com/trakr-app/trakr/internal/suggest"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const clientTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("Trakr starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Backend clients
	authClient := auth.NewClient(cfg.Auth.BaseURL, clientTimeout, log)
	authClient.Subscribe(func(userID string) {
		if userID == "" {
			log.Info("signed out")
			return
		}
		log.Info("signed in", "userId", userID)
	})
	searcher := lookup.NewClient(cfg.Lookup.BaseURL, clientTimeout, log)
	docs := store.NewClient(cfg.Store.BaseURL, clientTimeout, authClient.Token, log)

	// Local draft journal, so an unsent workout survives a crash mid-submit
	journal, err := submit.OpenJournal(cfg.State.Dir)
	if err != nil {
		log.Error("failed to open draft journal", "dir", cfg.State.Dir, "error", err)
		os.Exit(1)
	}
	defer journal.Close()
	log.Info("draft journal ready", "path", filepath.Join(cfg.State.Dir, "journal.db"))

	submitter := submit.New(docs, journal, log)
	hist := history.New(docs, log)

	suggestOpts := suggest.Options{
		Debounce:   time.Duration(cfg.Lookup.DebounceMS) * time.Millisecond,
		MinQuery:   cfg.Lookup.MinQuery,
		MaxResults: cfg.Lookup.MaxResults,
	}

	srv := server.New(authClient, searcher, submitter, hist, suggestOpts, log)

	// A draft that failed to persist before the last shutdown comes back
	if draft, ok, err := journal.Load(); err != nil {
		log.Warn("loading journaled draft failed", "error", err)
	} else if ok {
		srv.RestoreDraft(draft)
		log.Info("restored unsent draft from journal", "date", draft.Date, "exercises", len(draft.Exercises))
	}

	// Serve embedded frontend
	webDist, err := fs.Sub(trakr.WebFS, "web/dist")
	if err != nil {
		log.Error("failed to load embedded frontend", "error", err)
		os.Exit(1)
	}
	srv.SetFrontend(webDist)

	// Start server, tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
