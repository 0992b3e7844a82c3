package app

import (
	"context"
	"sort"

	"lernapp-service/internal/domain"
)

// UserRepository reads and writes the lernapp-users map.
type UserRepository struct {
	repos *Repositories
}

func (r *UserRepository) load(ctx context.Context) (map[string]domain.User, error) {
	users := map[string]domain.User{}
	if err := r.repos.readJSON(ctx, KeyUsers, &users); err != nil {
		return nil, err
	}
	for name, u := range users {
		if u.Name == "" {
			u.Name = name
			users[name] = u
		}
	}
	return users, nil
}

// All returns the whole username -> user map for read-only views. An unreadable
// collection is logged and shown as empty.
func (r *UserRepository) All(ctx context.Context) map[string]domain.User {
	users, err := r.load(ctx)
	if err != nil {
		r.repos.viewFallback(KeyUsers, err)
		return map[string]domain.User{}
	}
	return users
}

func (r *UserRepository) Get(ctx context.Context, name string) (domain.User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return domain.User{}, err
	}
	u, ok := users[name]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

// Put writes one user back as part of the full collection.
func (r *UserRepository) Put(ctx context.Context, u domain.User) error {
	return r.PutAll(ctx, u)
}

// PutAll replaces several users in one write.
func (r *UserRepository) PutAll(ctx context.Context, list ...domain.User) error {
	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	for _, u := range list {
		users[u.Name] = u
	}
	return r.repos.writeJSON(ctx, KeyUsers, users)
}

// EnsureExists creates an empty profile for name unless one is already stored.
func (r *UserRepository) EnsureExists(ctx context.Context, name string) (domain.User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if u, ok := users[name]; ok {
		return u, nil
	}
	u := domain.User{Name: name}
	users[name] = u
	return u, r.repos.writeJSON(ctx, KeyUsers, users)
}

// ClubRepository reads and writes the lernapp-clubs map.
type ClubRepository struct {
	repos *Repositories
}

func (r *ClubRepository) load(ctx context.Context) (map[string]domain.Club, error) {
	clubs := map[string]domain.Club{}
	if err := r.repos.readJSON(ctx, KeyClubs, &clubs); err != nil {
		return nil, err
	}
	return clubs, nil
}

func (r *ClubRepository) Get(ctx context.Context, id string) (domain.Club, error) {
	clubs, err := r.load(ctx)
	if err != nil {
		return domain.Club{}, err
	}
	c, ok := clubs[id]
	if !ok {
		return domain.Club{}, domain.ErrClubNotFound
	}
	return c, nil
}

func (r *ClubRepository) Put(ctx context.Context, c domain.Club) error {
	clubs, err := r.load(ctx)
	if err != nil {
		return err
	}
	clubs[c.ID] = c
	return r.repos.writeJSON(ctx, KeyClubs, clubs)
}

// Sorted returns all clubs ordered by id, which follows creation time. It backs
// read-only views, so an unreadable collection is shown as empty.
func (r *ClubRepository) Sorted(ctx context.Context) []domain.Club {
	clubs, err := r.load(ctx)
	if err != nil {
		r.repos.viewFallback(KeyClubs, err)
		return []domain.Club{}
	}
	out := make([]domain.Club, 0, len(clubs))
	for _, c := range clubs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// QuestRepository reads and writes per-user lernapp-quests-{username} lists.
type QuestRepository struct {
	repos *Repositories
}

func (r *QuestRepository) load(ctx context.Context, username string) ([]domain.Quest, error) {
	quests := []domain.Quest{}
	if err := r.repos.readJSON(ctx, QuestsKey(username), &quests); err != nil {
		return nil, err
	}
	return quests, nil
}

// List returns a user's clones for read-only views.
func (r *QuestRepository) List(ctx context.Context, username string) []domain.Quest {
	quests, err := r.load(ctx, username)
	if err != nil {
		r.repos.viewFallback(QuestsKey(username), err)
		return []domain.Quest{}
	}
	return quests
}

func (r *QuestRepository) Save(ctx context.Context, username string, quests []domain.Quest) error {
	if quests == nil {
		quests = []domain.Quest{}
	}
	return r.repos.writeJSON(ctx, QuestsKey(username), quests)
}

// Append adds one clone to the end of a user's list.
func (r *QuestRepository) Append(ctx context.Context, username string, q domain.Quest) error {
	quests, err := r.load(ctx, username)
	if err != nil {
		return err
	}
	return r.Save(ctx, username, append(quests, q))
}

// Find returns the first clone with id in the user's list.
func (r *QuestRepository) Find(ctx context.Context, username, id string) (domain.Quest, error) {
	quests, err := r.load(ctx, username)
	if err != nil {
		return domain.Quest{}, err
	}
	for _, q := range quests {
		if q.ID == id {
			return q, nil
		}
	}
	return domain.Quest{}, domain.ErrQuestNotFound
}

// Replace overwrites the first clone with the same id.
func (r *QuestRepository) Replace(ctx context.Context, username string, q domain.Quest) error {
	quests, err := r.load(ctx, username)
	if err != nil {
		return err
	}
	for i := range quests {
		if quests[i].ID == q.ID {
			quests[i] = q
			return r.Save(ctx, username, quests)
		}
	}
	return domain.ErrQuestNotFound
}

