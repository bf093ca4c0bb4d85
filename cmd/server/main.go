package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lightcade/lightcade/internal/api"
	"github.com/lightcade/lightcade/internal/config"
	"github.com/lightcade/lightcade/internal/factory"
	"github.com/lightcade/lightcade/internal/remote/redisremote"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	appCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.StorageType,
		SQLitePath:  cfg.SQLitePath,
		RemoteType:  cfg.RemoteType,
	}

	if cfg.RemoteType == factory.RemoteTypeRedis {
		if cfg.RedisURL == "" {
			logger.Error("REDIS_URL required when REMOTE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisremote.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		appCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(appCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:       logger,
		SlotRegistry: app.SlotRegistry,
		ScoreLedger:  app.ScoreLedger,
		ScoreRelay:   app.ScoreRelay,
	})

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	// Replay anything left over from the previous run once we are up
	app.ScoreRelay.Notify()

	go func() {
		logger.Info("server listening", slog.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	// Let an in-flight replay finish before the process exits
	app.ScoreRelay.Wait()
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
