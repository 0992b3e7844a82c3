package app

import (
	"context"
	"sort"

	"lernapp-service/internal/domain"
)

// Leaderboard derives rankings from the persisted users. Nothing is cached:
// every call reads the latest snapshot with its own context.
type Leaderboard struct {
	repos *Repositories
}

func NewLeaderboard(repos *Repositories) *Leaderboard {
	return &Leaderboard{repos: repos}
}

// RankUsers orders all users by points, highest first. Equal points are ordered by name.
func (l *Leaderboard) RankUsers(ctx context.Context) []domain.LeaderboardEntry {
	users := l.repos.Users.All(ctx)
	entries := make([]domain.LeaderboardEntry, 0, len(users))
	for name, u := range users {
		entry := domain.LeaderboardEntry{Name: name, Points: u.Points}
		if u.Club != nil {
			entry.ClubName = u.Club.ClubName
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].Name < entries[j].Name
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
