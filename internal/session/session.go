package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BlackMission/graphprofile/internal/auth"
	"github.com/BlackMission/graphprofile/internal/domain"
)

// maxPhotos bounds how many fetched photos a session keeps; the oldest is dropped first.
const maxPhotos = 4

// Session is the server-side state of one browser: its token cache, its
// authentication client and the photos fetched for it.
type Session struct {
	ID        string
	CreatedAt time.Time

	// initMu serializes client bootstrap, which reads the cache under mu.
	initMu sync.Mutex
	client *auth.Client

	mu         sync.Mutex
	lastSeen   time.Time
	cache      []byte
	photos     map[string]domain.Photo
	photoOrder []string
}

func newSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		lastSeen:  now,
		photos:    make(map[string]domain.Photo),
	}
}

// LoadCache implements auth.CacheStore.
func (s *Session) LoadCache() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.cache...), nil
}

// SaveCache implements auth.CacheStore.
func (s *Session) SaveCache(data []byte) error {
	s.mu.Lock()
	s.cache = append([]byte(nil), data...)
	s.mu.Unlock()
	return nil
}

// Client returns the session's authentication client, bootstrapping it on first use.
func (s *Session) Client(ctx context.Context, factory *auth.Factory) (*auth.Client, error) {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	c, err := factory.Bootstrap(ctx, s)
	if err != nil {
		return nil, err
	}
	s.client = c
	return c, nil
}

// StorePhoto keeps p and returns the ID it can be fetched back with.
func (s *Session) StorePhoto(p domain.Photo) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos[id] = p
	s.photoOrder = append(s.photoOrder, id)
	for len(s.photoOrder) > maxPhotos {
		delete(s.photos, s.photoOrder[0])
		s.photoOrder = s.photoOrder[1:]
	}
	return id
}

// Photo returns a photo stored with StorePhoto.
func (s *Session) Photo(id string) (domain.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.photos[id]
	if !ok {
		return domain.Photo{}, domain.ErrPhotoNotFound
	}
	return p, nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}
