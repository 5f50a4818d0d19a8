package session

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/BlackMission/graphprofile/internal/cookie"
	"github.com/BlackMission/graphprofile/internal/domain"
)

// Store keeps sessions in memory and expires them after ttl of inactivity.
type Store struct {
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewStore creates an empty store.
func NewStore(ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// SetNow overrides the time function (for testing).
func (s *Store) SetNow(fn func() time.Time) {
	s.now = fn
}

// Create registers a new, empty session.
func (s *Store) Create() *Session {
	sess := newSession(s.now())
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns a live session and marks it as used.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	now := s.now()
	if sess.idleSince(now) > s.ttl {
		s.Delete(id)
		return nil, domain.ErrSessionNotFound
	}
	sess.touch(now)
	return sess, nil
}

// Delete drops a session and everything it holds.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Resolve returns the session named by the request's cookie, or creates a new
// one and sets its cookie when there is none or it is no longer valid. A cookie
// past half its lifetime is re-issued, so like the session's idle timeout its
// expiry slides while the browser stays active.
func (s *Store) Resolve(w http.ResponseWriter, r *http.Request, codec *cookie.Codec) (*Session, error) {
	payload, err := codec.Read(r)
	if err == nil {
		sess, err := s.Get(payload.SessionID)
		if err == nil {
			if codec.NeedsRefresh(payload) {
				if err := codec.Write(w, sess.ID); err != nil {
					return nil, err
				}
			}
			return sess, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
	}

	sess := s.Create()
	if err := codec.Write(w, sess.ID); err != nil {
		s.Delete(sess.ID)
		return nil, err
	}
	return sess, nil
}

// Lookup returns the session named by the request's cookie without creating one.
func (s *Store) Lookup(r *http.Request, codec *cookie.Codec) (*Session, error) {
	payload, err := codec.Read(r)
	if err != nil {
		return nil, err
	}
	return s.Get(payload.SessionID)
}

// Sweep removes expired sessions and reports how many were dropped.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.idleSince(now) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps expired sessions every interval until Close is called.
func (s *Store) StartJanitor(interval time.Duration) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					s.logger.Debug("swept expired sessions", zap.Int("count", n))
				}
			}
		}
	}()
}

// Close stops the janitor, if running, and waits for it to exit.
func (s *Store) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	if s.started.Load() {
		<-s.done
	}
}
