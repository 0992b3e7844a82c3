package app

import (
	"sync"
	"time"

	"lernapp-service/internal/domain"
)

// SessionRepository abstracts where logged-in sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(token string) (*Session, bool)
	Delete(token string)
}

// PlayMode is what the learning screen is currently doing.
type PlayMode string

const (
	ModeIdle     PlayMode = "idle"
	ModePractice PlayMode = "practice"
	ModeQuest    PlayMode = "quest"
)

// PlayState is a snapshot of the learning screen.
type PlayState struct {
	Mode       PlayMode          `json:"mode"`
	Subject    domain.Subject    `json:"subject,omitempty"`
	Difficulty domain.Difficulty `json:"difficulty,omitempty"`
	QuestID    string            `json:"questId,omitempty"`
	Task       *domain.Task      `json:"task,omitempty"`
}

// Session is the explicit context of one logged-in user, created on login and
// torn down on logout.
type Session struct {
	token     string
	username  string
	createdAt time.Time
	now       func() time.Time

	mu      sync.Mutex
	profile domain.User
	play    PlayState
	epoch   uint64
	timer   *time.Timer
	closed  bool
}

func NewSession(token string, profile domain.User) *Session {
	return NewSessionWithClock(token, profile, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(token string, profile domain.User, now func() time.Time) *Session {
	return &Session{
		token:     token,
		username:  profile.Name,
		createdAt: now(),
		now:       now,
		profile:   profile,
		play:      PlayState{Mode: ModeIdle},
	}
}

func (s *Session) Token() string        { return s.token }
func (s *Session) Username() string     { return s.username }
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Profile returns the cached user record.
func (s *Session) Profile() domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

func (s *Session) setProfile(u domain.User) {
	s.mu.Lock()
	s.profile = u
	s.mu.Unlock()
}

// Play returns a snapshot of the learning screen.
func (s *Session) Play() PlayState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.play
}

// Closed reports whether the session was logged out.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// enter switches the screen. Any pending continuation of the previous screen is dropped.
func (s *Session) enter(state PlayState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigateLocked()
	s.play = state
}

func (s *Session) setTask(task domain.Task) {
	s.mu.Lock()
	s.play.Task = &task
	s.mu.Unlock()
}

// After schedules fn to run once d has elapsed, unless the user navigates away,
// starts another continuation or logs out first.
func (s *Session) After(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.navigateLocked()
	epoch := s.epoch
	s.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		live := !s.closed && s.epoch == epoch
		if live {
			s.timer = nil
		}
		s.mu.Unlock()
		if live {
			fn()
		}
	})
}

// Cancel drops any pending continuation without leaving the current screen.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigateLocked()
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigateLocked()
	s.closed = true
	s.play = PlayState{Mode: ModeIdle}
}

func (s *Session) navigateLocked() {
	s.epoch++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
