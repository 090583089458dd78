package tracking

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/TinyKitten/TrainLCDWeb/internal/domain"
)

type runningSession struct {
	session *Session
	cancel  context.CancelFunc
}

// Manager owns the set of live tracking sessions, one per connected rider.
type Manager struct {
	catalog  Catalog
	topology *domain.LineTopology
	opts     Options
	onUpdate UpdateFunc
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*runningSession
}

func NewManager(catalog Catalog, topology *domain.LineTopology, opts Options, onUpdate UpdateFunc, logger *slog.Logger) *Manager {
	return &Manager{
		catalog:  catalog,
		topology: topology,
		opts:     opts,
		onUpdate: onUpdate,
		logger:   logger,
		sessions: make(map[string]*runningSession),
	}
}

// Create starts a new session and its event loop. The session stops when
// either ctx is cancelled or Stop is called with its ID.
func (m *Manager) Create(ctx context.Context) *Session {
	id := uuid.New().String()
	session := NewSession(id, m.catalog, m.topology, m.opts, m.onUpdate, m.logger)

	sessionCtx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.sessions[id] = &runningSession{session: session, cancel: cancel}
	m.mu.Unlock()

	go session.Run(sessionCtx)

	m.logger.Debug("session created", "session_id", id, "total", m.Count())
	return session
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rs, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return rs.session, true
}

// Stop tears down one session, releasing its event loop, rotation ticker and
// any in-flight catalog fetch together.
func (m *Manager) Stop(id string) bool {
	m.mu.Lock()
	rs, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	rs.cancel()
	m.logger.Debug("session stopped", "session_id", id, "total", m.Count())
	return true
}

func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*runningSession)
	m.mu.Unlock()

	for _, rs := range sessions {
		rs.cancel()
	}
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
