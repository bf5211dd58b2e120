package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openfuse/console/internal/builder"
	"github.com/openfuse/console/internal/kv"
)

var (
	ErrSessionNotFound = errors.New("no builder session with given id exists")
	ErrSessionClosed   = errors.New("builder session is closed")
)

// Session wraps a single pipeline builder workflow. The builder itself is
// not goroutine safe; all access goes through With, which serializes
// callers on the session mutex.
type Session struct {
	ID string

	mu       sync.Mutex
	builder  *builder.Builder
	closed   bool
	lastUsed time.Time
}

// With runs fn against the session's builder while holding the session
// lock. Returns ErrSessionClosed if the session was torn down.
func (s *Session) With(fn func(*builder.Builder) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.lastUsed = time.Now()
	return fn(s.builder)
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.builder.Close()
}

// SessionManager owns the set of live builder sessions keyed by a random
// ID. Sessions idle past the configured TTL are retired by Sweep.
type SessionManager struct {
	catalog builder.CatalogLister
	api     builder.PipelineAPI
	drafts  kv.Store
	log     *slog.Logger
	ttl     time.Duration

	sessions map[string]*Session

	m sync.Mutex
}

func NewSessionManager(
	catalog builder.CatalogLister,
	api builder.PipelineAPI,
	drafts kv.Store,
	ttl time.Duration,
	log *slog.Logger,
) *SessionManager {
	return &SessionManager{
		catalog:  catalog,
		api:      api,
		drafts:   drafts,
		log:      log,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// CreateSession builds and bootstraps a new workflow. Bootstrap failures
// are not fatal here: the session is returned with its notice set so the
// caller can render the error state.
func (smgr *SessionManager) CreateSession(ctx context.Context, mode builder.Mode, pipelineID int64) (*Session, error) {
	b, err := builder.New(builder.Config{
		Mode:       mode,
		PipelineID: pipelineID,
		Catalog:    smgr.catalog,
		API:        smgr.api,
		Drafts:     smgr.drafts,
		Logger:     smgr.log,
	})
	if err != nil {
		return nil, fmt.Errorf("create builder: %w", err)
	}

	b.Bootstrap(ctx)

	s := &Session{
		ID:       uuid.New().String(),
		builder:  b,
		lastUsed: time.Now(),
	}
	smgr.set(s.ID, s)

	smgr.log.Info("builder session created",
		slog.String("session_id", s.ID),
		slog.String("mode", string(mode)),
	)
	return s, nil
}

func (smgr *SessionManager) GetSession(id string) (*Session, error) {
	smgr.m.Lock()
	defer smgr.m.Unlock()

	s, ok := smgr.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// CloseSession tears the session down and removes it from the registry.
// Closing an unknown session is not an error.
func (smgr *SessionManager) CloseSession(id string) {
	smgr.m.Lock()
	s, ok := smgr.sessions[id]
	delete(smgr.sessions, id)
	smgr.m.Unlock()

	if ok {
		s.close()
		smgr.log.Info("builder session closed", slog.String("session_id", id))
	}
}

func (smgr *SessionManager) set(id string, s *Session) {
	smgr.m.Lock()
	defer smgr.m.Unlock()

	smgr.sessions[id] = s
}

// Sweep retires sessions idle longer than the TTL. Intended to be called
// periodically from the server loop.
func (smgr *SessionManager) Sweep() {
	if smgr.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-smgr.ttl)

	smgr.m.Lock()
	var stale []*Session
	for id, s := range smgr.sessions {
		s.mu.Lock()
		idle := s.lastUsed.Before(cutoff)
		s.mu.Unlock()
		if idle {
			stale = append(stale, s)
			delete(smgr.sessions, id)
		}
	}
	smgr.m.Unlock()

	for _, s := range stale {
		s.close()
		smgr.log.Info("idle builder session retired", slog.String("session_id", s.ID))
	}
}

// Shutdown closes every live session concurrently.
func (smgr *SessionManager) Shutdown() {
	smgr.m.Lock()
	sessions := make([]*Session, 0, len(smgr.sessions))
	for _, s := range smgr.sessions {
		sessions = append(sessions, s)
	}
	smgr.sessions = make(map[string]*Session)
	smgr.m.Unlock()

	wg := sync.WaitGroup{}
	for _, s := range sessions {
		wg.Add(1)
		go func() {
			s.close()
			wg.Done()
		}()
	}
	wg.Wait()
}
