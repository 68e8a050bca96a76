package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anuhyanallapati/tic-tac-toe/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type statsProvider interface {
	Summary(ctx context.Context) (*entity.Stats, error)
}

type Server struct {
	logger   *slog.Logger
	stats    statsProvider
	gatherer prometheus.Gatherer
}

func New(logger *slog.Logger, stats statsProvider, gatherer prometheus.Gatherer) *Server {
	return &Server{
		logger:   logger.With("component", "rest"),
		stats:    stats,
		gatherer: gatherer,
	}
}

// Start serves the operational endpoints until the context is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/ping", that.handlePing)
	router.Get("/stats", that.handleStats)
	router.Handle("/metrics", promhttp.HandlerFor(that.gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *Server) handleStats(w http.ResponseWriter, req *http.Request) {
	stats, err := that.stats.Summary(req.Context())
	if err != nil {
		that.logger.Error("failed to read stats", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err = json.NewEncoder(w).Encode(stats); err != nil {
		that.logger.Error("failed to write stats", "error", err)
	}
}
