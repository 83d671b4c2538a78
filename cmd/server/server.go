package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"
	"github.com/KirkDiggler/rpg-toolkit/events"
	"github.com/spf13/cobra"

	"github.com/KirkDiggler/tactics-api/internal/config"
	"github.com/KirkDiggler/tactics-api/internal/engine/tactical"
	"github.com/KirkDiggler/tactics-api/internal/handlers/gateway"
	battle "github.com/KirkDiggler/tactics-api/internal/orchestrators/battle"
	"github.com/KirkDiggler/tactics-api/internal/pkg/clock"
	"github.com/KirkDiggler/tactics-api/internal/pkg/idgen"
	redisclient "github.com/KirkDiggler/tactics-api/internal/redis"
	battlerepo "github.com/KirkDiggler/tactics-api/internal/repositories/battle"
	"github.com/KirkDiggler/tactics-api/internal/ws"
)

var (
	httpPort   int
	configPath string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the websocket gateway server",
	Long:  `Start the tactics server, serving battle intents over /ws.`,
	RunE:  runServer,
}

func init() {
	serverCmd.Flags().IntVar(&httpPort, "port", 0, "HTTP server port (overrides config)")
	serverCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if httpPort != 0 {
		cfg.Server.Port = httpPort
	}

	setupLogging(cfg.Log.Level)

	redisClient, err := newRedisClient(&cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			slog.Warn("failed to close redis client", "error", closeErr)
		}
	}()

	repo, err := battlerepo.NewRedisRepository(&battlerepo.Config{
		Client: redisClient,
		Clock:  clock.New(),
	})
	if err != nil {
		return fmt.Errorf("failed to create battle repository: %w", err)
	}

	factory, err := tactical.NewFactory(&tactical.FactoryConfig{
		IDGenerator: idgen.NewPrefixed("obstacle"),
	})
	if err != nil {
		return fmt.Errorf("failed to create battlefield factory: %w", err)
	}

	eventBus := events.NewBus()

	svc, err := battle.NewOrchestrator(&battle.Config{
		BattleRepo:    repo,
		EngineFactory: factory,
		EventBus:      eventBus,
		DiceRoller:    dice.DefaultRoller,
		IDGenerator:   idgen.NewUUID("battle"),
	})
	if err != nil {
		return fmt.Errorf("failed to create battle orchestrator: %w", err)
	}

	gw, err := gateway.New(&gateway.Config{
		Service:  svc,
		EventBus: eventBus,
		Hub:      ws.NewHub(),
	})
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}
	defer gw.Close()

	mux := http.NewServeMux()
	mux.Handle("/ws", gw)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("received shutdown signal, gracefully stopping")
		cancel()
	}()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if serveErr := srv.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			errChan <- fmt.Errorf("failed to serve: %w", serveErr)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			slog.Warn("graceful shutdown failed, forcing close", "error", shutdownErr)
			_ = srv.Close()
		} else {
			slog.Info("server stopped gracefully")
		}

		return nil
	case err := <-errChan:
		return err
	}
}

func newRedisClient(cfg *config.RedisConfig) (redisclient.Client, error) {
	opts := &redisclient.Options{
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		UseTLS:       cfg.UseTLS,
	}

	if len(cfg.SentinelAddrs) > 0 {
		return redisclient.NewFailoverClient(cfg.MasterName, cfg.SentinelAddrs, opts)
	}
	return redisclient.NewClient(cfg.Address, opts)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
