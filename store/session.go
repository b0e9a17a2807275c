package store

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"notevault-api/domain"
	"notevault-api/storage"
)

// Session is the authenticated state for one user: three live stores
// over that user's collections, each with its own change-feed subscription.
// A session exists from login until logout; closing it tears the
// subscriptions down and empties every snapshot.
type Session struct {
	UserID  string
	Folders *FolderStore
	Notes   *NoteStore
	Tasks   *TaskStore

	cancel context.CancelFunc
}

// Manager moves users between the anonymous and authenticated states. Each
// user has at most one session, so each collection has at most one live
// subscription per user.
type Manager struct {
	backend       Backend
	redis         *redis.Client
	channelPrefix string
	logger        *log.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. The redis client feeds live updates;
// pass nil to run without a change feed (mutations still refresh snapshots
// locally).
func NewManager(backend Backend, rc *redis.Client, channelPrefix string, logger *log.Logger) *Manager {
	if backend == nil {
		panic("store.NewManager: backend is nil")
	}
	return &Manager{
		backend:       backend,
		redis:         rc,
		channelPrefix: channelPrefix,
		logger:        logger,
		sessions:      make(map[string]*Session),
	}
}

// Authenticate transitions userID into the authenticated state, opening a
// session with live subscriptions on first use. Subsequent calls return the
// existing session.
func (m *Manager) Authenticate(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}

	m.mu.Lock()
	if sess, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return sess, nil
	}

	folders := newFolderStore(userID, m.backend)
	notes := newNoteStore(userID, m.backend, folders.Snapshot)
	tasks := newTaskStore(userID, m.backend)
	folders.deleteNotesIn = notes.deleteByFolder

	feedCtx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		UserID:  userID,
		Folders: folders,
		Notes:   notes,
		Tasks:   tasks,
		cancel:  cancel,
	}
	m.sessions[userID] = sess
	m.mu.Unlock()

	folders.Refresh(ctx)
	notes.Refresh(ctx)
	tasks.Refresh(ctx)

	if m.redis != nil {
		go m.runFeed(feedCtx, storage.CollectionFolders, userID, folders.Refresh)
		go m.runFeed(feedCtx, storage.CollectionNotes, userID, notes.Refresh)
		go m.runFeed(feedCtx, storage.CollectionTasks, userID, tasks.Refresh)
	}
	return sess, nil
}

// Logout transitions userID back to anonymous: subscriptions stop, snapshots
// clear, per-note watches close.
func (m *Manager) Logout(userID string) {
	m.mu.Lock()
	sess, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	sess.cancel()
	sess.Folders.close()
	sess.Notes.close()
	sess.Tasks.close()
}

// Close logs every active user out.
func (m *Manager) Close() {
	m.mu.Lock()
	users := make([]string, 0, len(m.sessions))
	for userID := range m.sessions {
		users = append(users, userID)
	}
	m.mu.Unlock()
	for _, userID := range users {
		m.Logout(userID)
	}
}
