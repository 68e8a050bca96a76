package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/anuhyanallapati/tic-tac-toe/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

// eventHandler is the orchestrator-side surface the transport drives.
// Events may be delivered concurrently from independent read loops; the
// handler serializes them itself.
type eventHandler interface {
	HandleOpen(conn usecase.Connection)
	HandleMessage(conn usecase.Connection, raw []byte)
	HandleClose(conn usecase.Connection)
}

type Server struct {
	logger   *slog.Logger
	handler  eventHandler
	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, handler eventHandler) *Server {
	return &Server{
		logger:  logger.With("component", "websocket"),
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
}

// Start serves /ws until the context is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second, // upgraded connections are hijacked and unaffected
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

func (that *Server) serveWS(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	socket, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := newConn(socket)
	log.Info("WebSocket connection established", "remoteAddr", conn.RemoteAddr())

	that.handler.HandleOpen(conn)
	that.readLoop(conn)
}

// readLoop pumps inbound frames into the handler until the peer goes
// away, then reports the closure exactly once.
func (that *Server) readLoop(conn *Conn) {
	log := that.logger.With("method", "readLoop", "remoteAddr", conn.RemoteAddr())

	defer func() {
		that.handler.HandleClose(conn)
		conn.Close()
	}()

	for {
		messageType, raw, err := conn.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("read error", "error", err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		that.handler.HandleMessage(conn, raw)
	}
}
