package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/conversation"
	appErr "github.com/xxxsen/pdfchat/internal/pkg/errors"
)

const DefaultMaxSessions = 1000

type StoreConfig struct {
	MaxSessions int
	MaxTurns    int
	Labels      conversation.Labels
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      StoreConfig
	now      func() time.Time
}

func NewStore(cfg StoreConfig) *Store {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	return &Store{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *Store) Create(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		return nil, appErr.Wrap(appErr.ErrTooMany, fmt.Errorf("session limit %d reached", s.cfg.MaxSessions))
	}
	id := uuid.NewString()
	sess := newSession(id, conversation.NewHistory(s.cfg.MaxTurns, s.cfg.Labels), s.now())
	s.sessions[id] = sess
	logutil.GetLogger(ctx).Info("session created", zap.String("session_id", id), zap.Int("sessions", len(s.sessions)))
	return sess, nil
}

// Get returns the session and marks it active.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, appErr.Wrap(appErr.ErrNotFound, fmt.Errorf("session %s", id))
	}
	sess.touch(s.now())
	return sess, nil
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// PurgeIdle drops sessions not used for longer than maxIdle.
func (s *Store) PurgeIdle(ctx context.Context, maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := s.now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastActive().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("idle sessions purged", zap.Int("removed", removed), zap.Int("remaining", len(s.sessions)))
	}
	return removed
}
