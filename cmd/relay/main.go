package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/terazigame/kingdoms-server-go/internal/config"
	"github.com/terazigame/kingdoms-server-go/internal/logging"
	"github.com/terazigame/kingdoms-server-go/internal/relay"
)

var configPath = flag.String("config", "", "path to configuration file")

func main() {
	flag.Parse()

	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, level := logging.New(cfg.Log)
	defer logger.Sync()
	loader.Watch(func(fresh *config.Config) {
		level.SetLevel(logging.ParseLevel(fresh.Log.Level))
	})

	logger.Info("starting kingdoms relay", zap.String("addr", cfg.Relay.Addr))

	hub := relay.NewHub(logger, time.Now().UnixNano())
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	srv := &http.Server{Addr: cfg.Relay.Addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("relay server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("relay shutdown", zap.Error(err))
	}
}
