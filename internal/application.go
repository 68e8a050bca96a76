package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/anuhyanallapati/tic-tac-toe/internal/config"
	"github.com/anuhyanallapati/tic-tac-toe/internal/metrics"
	"github.com/anuhyanallapati/tic-tac-toe/internal/repository"
	"github.com/anuhyanallapati/tic-tac-toe/internal/repository/storage"
	"github.com/anuhyanallapati/tic-tac-toe/internal/usecase"
	"github.com/anuhyanallapati/tic-tac-toe/transport/rest"
	"github.com/anuhyanallapati/tic-tac-toe/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - wires the application together and runs it until a signal or
// a server failure.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	statsRepo := repository.NewStatsRepository(redisStorage)

	promRegistry := prometheus.NewRegistry()
	collectors := metrics.New(promRegistry)

	orchestrator := usecase.NewOrchestrator(logger, usecase.TimerScheduler{}, collectors, statsRepo, usecase.Options{
		StartNoticeDelay: conf.Game.StartNoticeDelay,
		FarewellDelay:    conf.Game.FarewellDelay,
	})

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)

		restServer := rest.New(logger, statsRepo, promRegistry)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			return fmt.Errorf("HTTP server error: %w", httpErr)
		}

		return nil
	})

	group.Go(func() error {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)

		wsServer := websocket.New(logger, orchestrator)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			return fmt.Errorf("WebSocket server error: %w", wsErr)
		}

		return nil
	})

	if err = group.Wait(); err != nil {
		return err
	}

	log.Info("Application context canceled, shutting down")

	return nil
}
