package usecase

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anuhyanallapati/tic-tac-toe/internal/entity"
	"github.com/anuhyanallapati/tic-tac-toe/internal/matchmaking"
)

func newTestSession(x, o Connection) *Session {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session := NewSession(logger, entity.NewGame("42"), matchmaking.New[Connection](), NewRegistry())
	session.AssignPlayers(x, o)

	return session
}

func TestSession_Broadcast(t *testing.T) {
	t.Run("Closed connections are skipped", func(t *testing.T) {
		// Given: a session where O's transport already died
		connX, connO := newFakeConn("X"), newFakeConn("O")
		session := newTestSession(connX, connO)

		connO.Close()
		sentToO := len(connO.sent)

		// When: the session broadcasts
		session.NotifyDisconnect()

		// Then: only the open player hears it
		assert.Greater(t, len(connX.sent), 0)
		assert.Len(t, connO.sent, sentToO)
	})

	t.Run("Emptied slots are skipped", func(t *testing.T) {
		// Given: a session with one slot already cleared
		connX, connO := newFakeConn("X"), newFakeConn("O")
		session := newTestSession(connX, connO)

		session.RemovePlayer(connX)
		sentToX := len(connX.sent)

		// When: the session broadcasts
		session.NotifyDisconnect()

		// Then: the removed player hears nothing
		assert.Len(t, connX.sent, sentToX)
	})
}

func TestSession_Membership(t *testing.T) {
	connX, connO := newFakeConn("X"), newFakeConn("O")
	stranger := newFakeConn("S")
	session := newTestSession(connX, connO)

	assert.True(t, session.HasPlayer(connX))
	assert.True(t, session.HasPlayer(connO))
	assert.False(t, session.HasPlayer(stranger))
	assert.False(t, session.IsEmpty())

	// When: both slots empty out
	session.RemovePlayer(connX)
	session.RemovePlayer(connO)

	// Then: the session reports itself as garbage
	assert.True(t, session.IsEmpty())

	// Removing a stranger is a no-op
	session.RemovePlayer(stranger)
	assert.True(t, session.IsEmpty())
}
