package sessionstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/yanqian/genui-analytics/internal/domain/dashboard"
)

// sweepInterval bounds how often writes scan for expired sessions.
const sweepInterval = time.Minute

type sessionRecord struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. It is the default for single-replica deployments.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	sessions  map[string]sessionRecord
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryStore constructs a store whose entries expire ttl after their last write.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]sessionRecord),
		now:      time.Now,
	}
}

// Create implements dashboard.Store.
func (s *MemoryStore) Create(_ context.Context, sess *dashboard.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(sess)
}

// Get implements dashboard.Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*dashboard.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id)
}

// Update implements dashboard.Store.
func (s *MemoryStore) Update(_ context.Context, id string, fn func(*dashboard.Session) error) (*dashboard.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.put(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Sessions are stored encoded so callers never share pointers with the store.
func (s *MemoryStore) put(sess *dashboard.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	now := s.now()
	exp := time.Time{}
	if s.ttl > 0 {
		exp = now.Add(s.ttl)
	}
	s.sessions[sess.ID] = sessionRecord{payload: payload, expiresAt: exp}
	s.sweepLocked(now)
	return nil
}

// sweepLocked drops expired sessions. Abandoned visitors are never read again, so reads alone cannot reclaim them.
func (s *MemoryStore) sweepLocked(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for id, record := range s.sessions {
		if record.expiresAt.Before(now) {
			delete(s.sessions, id)
		}
	}
}

func (s *MemoryStore) load(id string) (*dashboard.Session, error) {
	record, ok := s.sessions[id]
	if !ok {
		return nil, dashboard.ErrSessionNotFound
	}
	if !record.expiresAt.IsZero() && record.expiresAt.Before(s.now()) {
		delete(s.sessions, id)
		return nil, dashboard.ErrSessionNotFound
	}
	var sess dashboard.Session
	if err := json.Unmarshal(record.payload, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

var _ dashboard.Store = (*MemoryStore)(nil)
