package usecase

// Registry is the bidirectional session index: gameID to session
// (owning) and connection to gameID (lookup). A connection is bound iff
// its session currently holds it in a player slot. Guarded by the
// orchestrator's critical section.
type Registry struct {
	sessions map[string]*Session
	byConn   map[Connection]string
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byConn:   make(map[Connection]string),
	}
}

func (that *Registry) AddSession(session *Session) {
	that.sessions[session.ID()] = session
}

func (that *Registry) RemoveSession(id string) {
	delete(that.sessions, id)
}

func (that *Registry) SessionByID(id string) (*Session, bool) {
	session, ok := that.sessions[id]
	return session, ok
}

func (that *Registry) SessionByConn(conn Connection) (*Session, bool) {
	id, ok := that.byConn[conn]
	if !ok {
		return nil, false
	}

	session, ok := that.sessions[id]

	return session, ok
}

func (that *Registry) BindConn(conn Connection, gameID string) {
	that.byConn[conn] = gameID
}

func (that *Registry) UnbindConn(conn Connection) {
	delete(that.byConn, conn)
}

func (that *Registry) SessionCount() int {
	return len(that.sessions)
}
