package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/casegen/internal/api"
	"github.com/dgallion1/casegen/internal/chat"
	"github.com/dgallion1/casegen/internal/config"
	"github.com/dgallion1/casegen/internal/generator"
	"github.com/dgallion1/casegen/internal/jira"
	"github.com/dgallion1/casegen/internal/parser"
	"github.com/dgallion1/casegen/internal/pathstore"
	"github.com/dgallion1/casegen/internal/resolver"
	"github.com/dgallion1/casegen/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize clients.
	messages, err := openStore(cfg)
	if err != nil {
		log.Error("open message store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	jc := jira.NewClient(cfg.JiraBaseURL, cfg.JiraEmail, cfg.JiraAPIToken)
	stats := generator.NewLatencyStats(cfg.StatsWindow)
	gen := generator.NewClient(cfg.GeneratorURL, cfg.GeneratorTimeout).WithStats(stats)

	res := resolver.New(jc, messages, resolver.Options{
		IncludeAttachments: cfg.IncludeAttachments,
		MaxAttachmentBytes: cfg.MaxAttachmentBytes,
		MaxContextTokens:   cfg.MaxContextTokens,
		Parser:             parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
	}, log)
	chatSvc := chat.NewService(res, gen, messages, cfg.MaxInputChars, log)

	// Initialize HTTP server.
	srv := api.NewServer(res, chatSvc, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.GeneratorTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		log.Error("listen", "addr", httpServer.Addr, "error", err)
		os.Exit(1)
	}

	log.Info("starting casegen", "port", cfg.Port, "store", cfg.StoreBackend)
	err = serve(ctx, log, httpServer, ln, func() {
		gen.Close()
		jc.Close()
		if err := messages.Close(); err != nil {
			log.Error("close message store", "error", err)
		}
	})
	if err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("stopped")
}

// serve runs srv on ln until ctx is cancelled, then shuts it down and runs
// cleanup. It returns only after cleanup has finished.
func serve(ctx context.Context, log *slog.Logger, srv *http.Server, ln net.Listener, cleanup func()) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", "error", err)
		}
		cleanup()
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

func openStore(cfg config.Config) (store.MessageStore, error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		return store.OpenSQLite(cfg.StoreDir)
	case config.StorePathstore:
		return store.NewPathstore(pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)), nil
	case config.StoreMemory:
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
