// Command docsift ingests documents into page-grouped chunks.
//
// Usage:
//
//	docsift report.pdf notes.html            # one-shot: print chunk JSON
//	docsift -config docsift.yaml deck.pptx   # one-shot with config
//	docsift -config docsift.yaml -serve      # HTTP ingestion service
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/docsift/docsift/ingester"
)

func main() {
	configPath := flag.String("config", "", "path to docsift.yaml config file")
	serve := flag.Bool("serve", false, "run the HTTP ingestion service")
	addr := flag.String("addr", ":8080", "listen address for -serve")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *serve, *addr, flag.Args()); err != nil {
		logger.Error("docsift: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath string, serve bool, addr string, files []string) error {
	// No config file means a local-only pipeline with defaults.
	cfg := &ingester.Config{}
	cfgDefaults(cfg)
	if configPath != "" {
		var err error
		cfg, err = ingester.LoadFile(configPath)
		if err != nil {
			return err
		}
	}

	svc, closeStore, err := ingester.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer closeStore()

	if serve {
		return serveHTTP(ctx, logger, svc, cfg, addr)
	}

	if len(files) == 0 {
		return errors.New("no input files (or -serve) given")
	}
	return ingestFiles(ctx, svc, files)
}

// ingestFiles processes each file in order and prints its chunks as JSON.
// Processing continues past per-file failures; the first error is returned
// at the end.
func ingestFiles(ctx context.Context, svc *ingester.Service, files []string) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	var firstErr error
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			fmt.Fprintf(os.Stderr, "docsift: %s: %v\n", path, err)
			continue
		}

		result, err := svc.Ingest(ctx, path, data)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			fmt.Fprintf(os.Stderr, "docsift: %s: %v\n", path, err)
			continue
		}
		if err := enc.Encode(result); err != nil {
			return err
		}
	}
	return firstErr
}

func serveHTTP(ctx context.Context, logger *slog.Logger, svc *ingester.Service, cfg *ingester.Config, addr string) error {
	handler := ingester.NewHandler(svc, cfg.MaxUploadBytes, logger)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func cfgDefaults(cfg *ingester.Config) {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 64 << 20
	}
	if cfg.Blobstore.Type == "" {
		cfg.Blobstore.Type = "none"
	}
}
