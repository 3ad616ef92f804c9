// Package session scopes a loaded document, its index and its chat history
// to one caller.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/xxxsen/pdfchat/internal/conversation"
	"github.com/xxxsen/pdfchat/internal/index"
	"github.com/xxxsen/pdfchat/internal/model"
)

// Document is what one successful ingestion publishes.
type Document struct {
	FileName   string
	Pages      []model.PageRecord
	Statistics model.Statistics
	Snapshot   *index.Snapshot
}

// View is a consistent read of the session taken under the read lock.
type View struct {
	Loaded     bool
	FileName   string
	Pages      []model.PageRecord
	Statistics model.Statistics
	Snapshot   *index.Snapshot
	History    string
}

type Session struct {
	id      string
	created time.Time

	ingestMu sync.Mutex
	mu       sync.RWMutex
	loaded   bool
	fileName string
	pages    []model.PageRecord
	stats    model.Statistics

	snapshot   atomic.Pointer[index.Snapshot]
	history    *conversation.History
	lastActive atomic.Int64
}

func newSession(id string, history *conversation.History, now time.Time) *Session {
	s := &Session{id: id, created: now, history: history}
	s.lastActive.Store(now.UnixNano())
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Created() time.Time { return s.created }

func (s *Session) History() *conversation.History { return s.history }

// Snapshot is the index currently in use; nil before the first ingestion.
func (s *Session) Snapshot() *index.Snapshot {
	return s.snapshot.Load()
}

func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Session) Statistics() model.Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// LockIngest serializes ingestions; the returned func releases the lock.
func (s *Session) LockIngest() func() {
	s.ingestMu.Lock()
	return s.ingestMu.Unlock
}

// Publish replaces the loaded document wholesale and clears the history.
// Searches already holding the previous snapshot finish against it.
func (s *Session) Publish(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.fileName = doc.FileName
	s.pages = doc.Pages
	s.stats = doc.Statistics
	s.snapshot.Store(doc.Snapshot)
	s.history.Clear()
}

// AppendTurn records a turn only if snap is still the published index, so an
// answer about a replaced document never lands in the new history.
func (s *Session) AppendTurn(snap *index.Snapshot, question, answer string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot.Load() != snap {
		return false
	}
	s.history.Append(question, answer)
	return true
}

func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		Loaded:     s.loaded,
		FileName:   s.fileName,
		Pages:      s.pages,
		Statistics: s.stats,
		Snapshot:   s.snapshot.Load(),
		History:    s.history.Render(),
	}
}

func (s *Session) touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}
