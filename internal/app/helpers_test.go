package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"lernapp-service/internal/app"
	"lernapp-service/internal/domain"
	"lernapp-service/internal/infra/memory"
	"lernapp-service/internal/tasks"
)

// stubAuth accepts any registration and the password "pw".
type stubAuth struct {
	mu         sync.Mutex
	registered []string
}

func (a *stubAuth) Register(_ context.Context, username, _, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.registered = append(a.registered, username)
	return nil
}

func (a *stubAuth) Authenticate(_ context.Context, _, password string) error {
	if password != "pw" {
		return domain.NewError(domain.ErrUnauthenticated, "wrong username or password")
	}
	return nil
}

// fakeClock advances one millisecond per reading.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type testEnv struct {
	svc   *app.Service
	store app.KVStore
	auth  *stubAuth
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, memory.NewKVStore())
}

func newTestEnvWithStore(t *testing.T, store app.KVStore) *testEnv {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
	auth := &stubAuth{}
	svc := app.NewService(app.Deps{
		Store:    store,
		Sessions: memory.NewSessionStore(),
		Auth:     auth,
		Tasks:    tasks.NewGeneratorWithSeed(7),
		Clock:    clock.Now,
	})
	return &testEnv{svc: svc, store: store, auth: auth}
}

func (e *testEnv) login(t *testing.T, name string) *app.Session {
	t.Helper()
	ctx := context.Background()
	err := e.svc.Identity.Register(ctx, app.Registration{Username: name, Email: name + "@example.com", Password: "pw", Confirm: "pw"})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	s, err := e.svc.Identity.Login(ctx, name, "pw")
	if err != nil {
		t.Fatalf("login %s: %v", name, err)
	}
	return s
}

// load decodes the raw stored value of key into dst.
func (e *testEnv) load(t *testing.T, key string, dst any) {
	t.Helper()
	raw, ok, err := e.store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	if !ok {
		return
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		t.Fatalf("decode %s: %v", key, err)
	}
}

func (e *testEnv) users(t *testing.T) map[string]domain.User {
	t.Helper()
	users := map[string]domain.User{}
	e.load(t, app.KeyUsers, &users)
	return users
}

func (e *testEnv) clubs(t *testing.T) map[string]domain.Club {
	t.Helper()
	clubs := map[string]domain.Club{}
	e.load(t, app.KeyClubs, &clubs)
	return clubs
}

func (e *testEnv) quests(t *testing.T, name string) []domain.Quest {
	t.Helper()
	var quests []domain.Quest
	e.load(t, app.QuestsKey(name), &quests)
	return quests
}

// clubWithMembers creates a club owned by the first name and joins the rest.
func (e *testEnv) clubWithMembers(t *testing.T, names ...string) (domain.Club, map[string]*app.Session) {
	t.Helper()
	ctx := context.Background()
	sessions := map[string]*app.Session{}
	for _, n := range names {
		sessions[n] = e.login(t, n)
	}
	club, err := e.svc.Clubs.CreateClub(ctx, sessions[names[0]], "Foo", "")
	if err != nil {
		t.Fatalf("create club: %v", err)
	}
	for _, n := range names[1:] {
		if _, err := e.svc.Clubs.JoinClub(ctx, sessions[n], club.ID); err != nil {
			t.Fatalf("join %s: %v", n, err)
		}
	}
	return club, sessions
}
