package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/terazigame/kingdoms-server-go/internal/bot"
	"github.com/terazigame/kingdoms-server-go/internal/config"
	"github.com/terazigame/kingdoms-server-go/internal/game"
	"github.com/terazigame/kingdoms-server-go/internal/logging"
	"github.com/terazigame/kingdoms-server-go/internal/repository"
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
		logger.Info("log level reloaded", zap.String("level", fresh.Log.Level))
	})

	logger.Info("starting kingdoms server",
		zap.String("addr", cfg.Server.Addr),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	players, bots := sessionSettings(ctx, cfg, logger)
	engine := game.NewEngine(game.Config{
		PlayerCount:  players,
		BotCount:     bots,
		AutoEndDelay: cfg.Game.AutoEndDelay,
		Seed:         cfg.Game.Seed,
	}, logger)
	engine.Start()

	go runBots(ctx, engine, cfg.Game.BotDeadline, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(engine.View()); err != nil {
			logger.Warn("state encode failed", zap.Error(err))
		}
	})
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-sigChan
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

// sessionSettings reads seat/bot counts: the database store wins when one is
// configured, otherwise the config values stand.
func sessionSettings(ctx context.Context, cfg *config.Config, logger *zap.Logger) (int, int) {
	players, bots := cfg.Game.Players, cfg.Game.Bots
	if cfg.Database.DSN == "" {
		return players, bots
	}

	store, err := repository.Open(ctx, cfg.Database.DSN, logger)
	if err != nil {
		logger.Warn("settings store unavailable, using config values", zap.Error(err))
		return players, bots
	}
	defer store.Close()

	players = store.GetInt(ctx, "session.players", players)
	bots = store.GetInt(ctx, "session.bots", bots)
	logger.Info("session settings loaded", zap.Int("players", players), zap.Int("bots", bots))
	return players, bots
}

// runBots drives bot seats and keeps the session moving: vassal seats are
// fast-forwarded, bot seats get a bounded turn, and a stalled bot is forced
// past.
func runBots(ctx context.Context, engine *game.Engine, deadline time.Duration, logger *zap.Logger) {
	if deadline <= 0 {
		deadline = 10 * time.Second
	}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		v := engine.View()
		if v.Phase != "OYUN" {
			continue
		}
		engine.AdvanceUntilActionable()

		v = engine.View()
		active := activePlayer(v)
		if active == nil || !active.IsBot {
			continue
		}

		turnCtx, cancel := context.WithTimeout(ctx, deadline)
		done := make(chan struct{})
		go func() {
			defer close(done)
			bot.New(engine, active.ID, logger).TakeTurn(turnCtx)
		}()

		select {
		case <-done:
		case <-turnCtx.Done():
			logger.Warn("bot stalled, forcing turn", zap.Int("player", active.ID))
			engine.ForceEndTurn()
			<-done
		}
		cancel()
	}
}

func activePlayer(v game.GameView) *game.PlayerView {
	for i := range v.Players {
		if v.Players[i].ID == v.ActivePlayer {
			return &v.Players[i]
		}
	}
	return nil
}
