// File path: cmd/mostashar/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rowadtech/mostashar/internal/api"
	"github.com/rowadtech/mostashar/internal/common"
	"github.com/rowadtech/mostashar/internal/embedding"
	"github.com/rowadtech/mostashar/internal/kb"
	"github.com/rowadtech/mostashar/internal/llm"
	"github.com/rowadtech/mostashar/internal/orchestrator"
	"github.com/rowadtech/mostashar/internal/sqlite"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("mostashar: .env file not loaded", "error", err)
	} else {
		logger.Info("mostashar: environment loaded from .env")
	}

	addr := flag.String("addr", ":8082", "listen address")
	collectionsDir := flag.String("collections", defaultCollectionsDir(), "directory holding <name>.json collection files")
	dbPath := flag.String("db", "", "path to the SQLite state database")
	modelTimeout := flag.String("model-timeout", "", "ceiling on one embedding-model call (e.g. 10s)")
	flag.Parse()

	logger.Info("mostashar: startup initiated", "addr", *addr, "collections", *collectionsDir)

	storeCfg := sqlite.LoadConfig()
	if trimmed := strings.TrimSpace(*dbPath); trimmed != "" {
		storeCfg.Path = trimmed
	}
	store, err := sqlite.OpenWithConfig(storeCfg)
	if err != nil {
		logger.Error("mostashar: state store unavailable", "error", err)
		fmt.Println("store error:", err)
		os.Exit(1)
	}
	defer store.Close()

	embedCfg := embedding.DefaultConfig()
	if trimmed := strings.TrimSpace(*modelTimeout); trimmed != "" {
		dur, err := time.ParseDuration(trimmed)
		if err != nil {
			logger.Error("mostashar: invalid model timeout", "value", trimmed, "error", err)
			fmt.Println("model timeout error:", err)
			os.Exit(1)
		}
		embedCfg.ModelTimeout = dur
	}

	var model embedding.Embedder
	if m := embedding.NewModelEmbedderFromEnv(); m != nil {
		model = m
	}

	orch := orchestrator.New(
		orchestrator.Config{CollectionsDir: *collectionsDir, Embedding: embedCfg},
		kb.NewFileProvider(*collectionsDir),
		store,
		model,
		llm.NewProvider(),
	)
	if err := orch.Initialize(ctx); err != nil {
		logger.Error("mostashar: initialization failed", "error", err)
		fmt.Println("initialization error:", err)
		os.Exit(1)
	}

	server, err := api.NewServer(orch, store)
	if err != nil {
		logger.Error("mostashar: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mostashar: listening", "addr", *addr)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("mostashar: server failed", "error", err)
			fmt.Println("server error:", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("mostashar: shutting down", "signal", sig.String())
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mostashar: shutdown incomplete", "error", err)
		}
	}
}

func defaultCollectionsDir() string {
	if env := strings.TrimSpace(os.Getenv("MOSTASHAR_COLLECTIONS_DIR")); env != "" {
		return env
	}
	return "collections"
}
