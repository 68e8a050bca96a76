package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/anuhyanallapati/tic-tac-toe/internal/apperror"
	"github.com/anuhyanallapati/tic-tac-toe/internal/entity"
	"github.com/anuhyanallapati/tic-tac-toe/internal/matchmaking"
	"github.com/anuhyanallapati/tic-tac-toe/internal/metrics"
	"github.com/anuhyanallapati/tic-tac-toe/internal/pkg"
	"github.com/anuhyanallapati/tic-tac-toe/internal/protocol"
)

// statsRecorder records finished-game outcomes without blocking gameplay.
type statsRecorder interface {
	RecordResult(ctx context.Context, winner string) error
}

// Options carry the cosmetic delays for scheduled actions.
type Options struct {
	// StartNoticeDelay separates the assignment messages from the start
	// banner so clients render them in order.
	StartNoticeDelay time.Duration
	// FarewellDelay lets the leftGame message flush before the transport
	// is torn down.
	FarewellDelay time.Duration
}

// Orchestrator owns the waiting queue, the session registry, and the
// matchmaker. Connection events arrive concurrently from independent
// read loops; one mutex serializes them all, since matchmaking, session
// lookup, and session mutation cross the same maps.
type Orchestrator struct {
	logger    *slog.Logger
	scheduler Scheduler
	metrics   *metrics.Metrics
	stats     statsRecorder
	options   Options

	mu       sync.Mutex
	queue    *matchmaking.Queue[Connection]
	registry *Registry

	newGameID func() string
}

func NewOrchestrator(logger *slog.Logger, scheduler Scheduler, collectors *metrics.Metrics, stats statsRecorder, options Options) *Orchestrator {
	return &Orchestrator{
		logger:    logger.With("component", "orchestrator"),
		scheduler: scheduler,
		metrics:   collectors,
		stats:     stats,
		options:   options,

		queue:    matchmaking.New[Connection](),
		registry: NewRegistry(),

		newGameID: pkg.GenerateGameID,
	}
}

// HandleOpen enqueues a freshly accepted connection and runs the
// matchmaker. A connection left waiting is told so.
func (that *Orchestrator) HandleOpen(conn Connection) {
	log := that.logger.With("method", "HandleOpen")

	that.mu.Lock()
	defer that.mu.Unlock()

	that.queue.Enqueue(conn)
	log.Info("new connection", "remoteAddr", conn.RemoteAddr())

	that.pairWaiting()

	if that.queue.Contains(conn) {
		that.send(conn, protocol.NewMessage(protocol.TypeQueueUpdate, "",
			"Waiting for an opponent to join..."))
	}
}

// HandleMessage decodes one inbound message at the boundary and routes
// the typed command through the registry. Malformed input answers the
// sender with an error message and nothing else; it never reaches the
// state machine.
func (that *Orchestrator) HandleMessage(conn Connection, raw []byte) {
	log := that.logger.With("method", "HandleMessage")

	message, err := protocol.Decode(raw)
	if err != nil {
		log.Warn("undecodable message", "remoteAddr", conn.RemoteAddr(), "error", err)
		that.metrics.ProtocolErrors.Inc()
		that.sendError(conn, "Invalid message format")

		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	switch command := message.(type) {
	case protocol.MakeMove:
		that.handleMove(conn, command.Position)
	case protocol.ResetGame:
		that.handleReset(conn)
	case protocol.PlayAgain:
		that.handlePlayAgain(conn, command.Response)
	}
}

// HandleClose cleans up after a departed connection. Closure is never an
// error condition; it is the normal cleanup trigger.
func (that *Orchestrator) HandleClose(conn Connection) {
	log := that.logger.With("method", "HandleClose")

	that.mu.Lock()
	defer that.mu.Unlock()

	that.queue.Remove(conn)
	that.metrics.QueueSize.Set(float64(that.queue.Len()))

	session, ok := that.registry.SessionByConn(conn)
	if !ok {
		log.Info("connection closed", "remoteAddr", conn.RemoteAddr())
		return
	}

	session.RemovePlayer(conn)
	session.NotifyDisconnect()

	// A vote may now be the last one outstanding.
	result := session.ResolveRematchIfComplete()
	for _, leaver := range result.Leaving {
		that.scheduleClose(leaver)
	}

	if session.IsEmpty() {
		that.evict(session)
	}

	that.pairWaiting()
	log.Info("connection closed", "remoteAddr", conn.RemoteAddr(), "gameID", session.ID())
}

func (that *Orchestrator) handleMove(conn Connection, position int) {
	session, ok := that.registry.SessionByConn(conn)
	if !ok {
		that.sendError(conn, apperror.ErrNotInGame.Error())
		return
	}

	ended, err := session.HandleMove(conn, position)
	if err != nil {
		that.sendError(conn, err.Error())
		return
	}

	that.metrics.MovesTotal.Inc()

	if ended {
		winner := session.Winner()
		that.metrics.GamesFinished.WithLabelValues(winner).Inc()
		that.recordResult(winner)
	}
}

func (that *Orchestrator) handleReset(conn Connection) {
	session, ok := that.registry.SessionByConn(conn)
	if !ok {
		that.sendError(conn, apperror.ErrNotInGame.Error())
		return
	}

	session.Reset()
}

func (that *Orchestrator) handlePlayAgain(conn Connection, wantsToPlay bool) {
	session, ok := that.registry.SessionByConn(conn)
	if !ok {
		that.sendError(conn, apperror.ErrNotInGame.Error())
		return
	}

	result, err := session.HandleRematchVote(conn, wantsToPlay)
	if err != nil {
		that.sendError(conn, err.Error())
		return
	}

	if !result.Resolved {
		return
	}

	for _, leaver := range result.Leaving {
		that.scheduleClose(leaver)
	}

	if session.IsEmpty() {
		that.evict(session)
	}

	// A requeued player may pair with someone already waiting.
	that.pairWaiting()
}

// pairWaiting drains the queue two at a time; several pairs may become
// ready in one event. Pairing is strict arrival order with no skipping.
func (that *Orchestrator) pairWaiting() {
	for {
		x, o, ok := that.queue.DequeuePair()
		if !ok {
			break
		}

		game := entity.NewGame(that.uniqueGameID())
		session := NewSession(that.logger, game, that.queue, that.registry)
		that.registry.AddSession(session)

		session.AssignPlayers(x, o)
		that.scheduleStartNotice(session)

		that.metrics.GamesCreated.Inc()
		that.metrics.ActiveSessions.Set(float64(that.registry.SessionCount()))

		that.logger.Info("created new game", "gameID", game.ID,
			"playerX", x.RemoteAddr(), "playerO", o.RemoteAddr())
	}

	that.metrics.QueueSize.Set(float64(that.queue.Len()))
}

// uniqueGameID draws IDs until one is absent from the registry, so a
// colliding draw can never replace a live session.
func (that *Orchestrator) uniqueGameID() string {
	for {
		id := that.newGameID()
		if _, taken := that.registry.SessionByID(id); !taken {
			return id
		}
	}
}

// scheduleStartNotice delays the start banner so clients render the
// assignment message first. The task re-acquires the lock itself and
// tolerates the session having gone away.
func (that *Orchestrator) scheduleStartNotice(session *Session) {
	gameID := session.ID()

	that.scheduler.After(that.options.StartNoticeDelay, func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		current, ok := that.registry.SessionByID(gameID)
		if !ok || current != session || current.Ended() {
			return
		}

		current.BroadcastStart()
	})
}

// scheduleClose tears a declining player's connection down once the
// farewell message has had a moment to flush. Close is idempotent, so a
// racing disconnect is harmless.
func (that *Orchestrator) scheduleClose(conn Connection) {
	that.scheduler.After(that.options.FarewellDelay, conn.Close)
}

func (that *Orchestrator) evict(session *Session) {
	that.registry.RemoveSession(session.ID())
	that.metrics.ActiveSessions.Set(float64(that.registry.SessionCount()))
	that.logger.Info("removed empty game", "gameID", session.ID())
}

// recordResult writes the outcome to storage off the event path.
func (that *Orchestrator) recordResult(winner string) {
	if that.stats == nil {
		return
	}

	go func() {
		if err := that.stats.RecordResult(context.Background(), winner); err != nil {
			that.logger.Error("failed to record game result", "error", err)
		}
	}()
}

func (that *Orchestrator) send(conn Connection, message any) {
	if conn == nil || !conn.IsOpen() {
		return
	}

	payload, err := protocol.Encode(message)
	if err != nil {
		that.logger.Error("failed to encode message", "error", err)
		return
	}

	conn.Send(payload)
}

func (that *Orchestrator) sendError(conn Connection, text string) {
	that.send(conn, protocol.NewMessage(protocol.TypeError, "", text))
}
