package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Persisted keys. They match the browser client's localStorage layout.
const (
	KeyCurrentUser  = "lernapp-current-user"
	KeyUsers        = "lernapp-users"
	KeyClubs        = "lernapp-clubs"
	keyQuestsPrefix = "lernapp-quests-"
)

// QuestsKey returns the key holding a user's quest clones.
func QuestsKey(username string) string {
	return keyQuestsPrefix + username
}

// KVStore abstracts the string-keyed persistent store (in-memory, Redis, Postgres).
// Get reports ok=false for absent keys.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Repositories groups the per-entity views over one KVStore.
// All read-modify-write cycles inside this process run under mu; writers in
// other processes are not coordinated and the last write wins.
type Repositories struct {
	store  KVStore
	logger *slog.Logger
	mu     sync.Mutex

	Users  *UserRepository
	Clubs  *ClubRepository
	Quests *QuestRepository
}

func NewRepositories(store KVStore, logger *slog.Logger) *Repositories {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Repositories{store: store, logger: logger}
	r.Users = &UserRepository{repos: r}
	r.Clubs = &ClubRepository{repos: r}
	r.Quests = &QuestRepository{repos: r}
	return r
}

// Update runs fn while holding the write lock.
func (r *Repositories) Update(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}

// readJSON decodes key into dst. Absent keys leave dst untouched. Read and decode
// failures are returned so that mutations abort instead of writing back a
// collection built from nothing.
func (r *Repositories) readJSON(ctx context.Context, key string, dst any) error {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// viewFallback logs a failed read for a read-only view, which then shows the empty default.
func (r *Repositories) viewFallback(key string, err error) {
	r.logger.Warn("store read failed, using empty default", "key", key, "err", err)
}

func (r *Repositories) writeJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
