package redis

import (
	"context"
	"sync"
	"time"

	"lernapp-service/internal/app"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps sessions in a local map and marks each one live in Redis.
// Sessions hold timers and play state, so only the marker is shared; another
// instance can see that a token was issued but cannot resume it.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token()] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.Token()), session.Username(), s.ttl).Err()
}

// Get returns a local session and refreshes its marker.
func (s *SessionStore) Get(token string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()
	if ok && s.ttl > 0 {
		_ = s.client.Expire(context.Background(), s.key(token), s.ttl).Err()
	}
	return session, ok
}

func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	_ = s.client.Del(context.Background(), s.key(token)).Err()
}

// Owner reports which user holds token according to Redis.
func (s *SessionStore) Owner(ctx context.Context, token string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(token)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *SessionStore) key(token string) string {
	return "lernapp:session:" + token
}
