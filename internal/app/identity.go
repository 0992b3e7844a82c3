package app

import (
	"context"
	"log/slog"
	"strings"

	"lernapp-service/internal/domain"

	"github.com/google/uuid"
)

// Authenticator is the registration/login backend, local or remote.
type Authenticator interface {
	Register(ctx context.Context, username, email, password string) error
	Authenticate(ctx context.Context, username, password string) error
}

// Registration is the sign-up form.
type Registration struct {
	Username string
	Email    string
	Password string
	Confirm  string
}

// Identity tracks who is logged in. Only the username is persisted locally.
type Identity struct {
	auth     Authenticator
	repos    *Repositories
	sessions SessionRepository
	logger   *slog.Logger
	newToken func() string
}

func NewIdentity(auth Authenticator, repos *Repositories, sessions SessionRepository, logger *slog.Logger) *Identity {
	if logger == nil {
		logger = slog.Default()
	}
	return &Identity{
		auth:     auth,
		repos:    repos,
		sessions: sessions,
		logger:   logger,
		newToken: func() string { return uuid.NewString() },
	}
}

// Register validates the form, registers with the auth backend and creates an empty profile.
func (i *Identity) Register(ctx context.Context, reg Registration) error {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		return domain.ErrMissingFields
	}
	if reg.Password != reg.Confirm {
		return domain.ErrPasswordMismatch
	}
	if err := i.auth.Register(ctx, reg.Username, reg.Email, reg.Password); err != nil {
		return err
	}
	return i.repos.Update(func() error {
		_, err := i.repos.Users.EnsureExists(ctx, reg.Username)
		return err
	})
}

// Login authenticates and opens a session.
func (i *Identity) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrMissingFields
	}
	if err := i.auth.Authenticate(ctx, username, password); err != nil {
		return nil, err
	}

	var profile domain.User
	err := i.repos.Update(func() error {
		var err error
		profile, err = i.repos.Users.EnsureExists(ctx, username)
		if err != nil {
			return err
		}
		return i.repos.store.Set(ctx, KeyCurrentUser, username)
	})
	if err != nil {
		return nil, err
	}

	session := NewSession(i.newToken(), profile)
	i.sessions.Put(session)
	i.logger.Info("user logged in", "user", username)
	return session, nil
}

// Logout cancels pending continuations and forgets the session.
func (i *Identity) Logout(ctx context.Context, token string) error {
	session, ok := i.sessions.Get(token)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.close()
	i.sessions.Delete(token)
	if err := i.repos.store.Delete(ctx, KeyCurrentUser); err != nil {
		return err
	}
	i.logger.Info("user logged out", "user", session.Username())
	return nil
}

// SessionLocator is implemented by session stores shared between server instances.
type SessionLocator interface {
	Owner(ctx context.Context, token string) (username string, ok bool, err error)
}

// Resolve returns the live session for token. A token issued by another instance
// is reported as ErrSessionElsewhere.
func (i *Identity) Resolve(ctx context.Context, token string) (*Session, error) {
	session, ok := i.sessions.Get(token)
	if ok && !session.Closed() {
		return session, nil
	}
	if locator, shared := i.sessions.(SessionLocator); shared && !ok && token != "" {
		owner, found, err := locator.Owner(ctx, token)
		if err != nil {
			i.logger.Warn("session lookup failed", "err", err)
		} else if found {
			i.logger.Info("session held by another instance", "user", owner)
			return nil, domain.ErrSessionElsewhere
		}
	}
	return nil, domain.ErrSessionNotFound
}

// LastUser returns the last logged-in username, or "".
func (i *Identity) LastUser(ctx context.Context) string {
	name, ok, err := i.repos.store.Get(ctx, KeyCurrentUser)
	if err != nil || !ok {
		return ""
	}
	return name
}

// Refresh reloads the session's cached profile from the store.
func (i *Identity) Refresh(ctx context.Context, s *Session) (domain.User, error) {
	u, err := i.repos.Users.Get(ctx, s.Username())
	if err != nil {
		return domain.User{}, err
	}
	s.setProfile(u)
	return u, nil
}
