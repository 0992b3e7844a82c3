package app

import (
	"log/slog"
	"time"
)

// Service bundles the use cases that transports call into.
type Service struct {
	Identity    *Identity
	Clubs       *ClubRegistry
	Quests      *QuestEngine
	Leaderboard *Leaderboard
}

// Deps are the collaborators a Service is built from.
type Deps struct {
	Store    KVStore
	Sessions SessionRepository
	Auth     Authenticator
	Tasks    TaskSource
	Logger   *slog.Logger
	Clock    func() time.Time
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	repos := NewRepositories(d.Store, d.Logger)
	ids := NewIDGenerator(d.Clock)
	return &Service{
		Identity:    NewIdentity(d.Auth, repos, d.Sessions, d.Logger),
		Clubs:       NewClubRegistry(repos, ids, d.Logger),
		Quests:      NewQuestEngine(repos, ids, d.Tasks, d.Logger),
		Leaderboard: NewLeaderboard(repos),
	}
}
