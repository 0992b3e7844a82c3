package app

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"lernapp-service/internal/domain"
)

// ClubRegistry manages club creation, membership and admin rights.
type ClubRegistry struct {
	repos  *Repositories
	ids    *IDGenerator
	logger *slog.Logger
}

func NewClubRegistry(repos *Repositories, ids *IDGenerator, logger *slog.Logger) *ClubRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClubRegistry{repos: repos, ids: ids, logger: logger}
}

// CreateClub creates a club with the acting user as creator, member and admin.
// An empty code is replaced by a random join code.
func (r *ClubRegistry) CreateClub(ctx context.Context, s *Session, name, code string) (domain.Club, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Club{}, domain.ErrEmptyClubName
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = r.ids.JoinCode()
	}

	actor := s.Username()
	club := domain.Club{
		ID:      r.ids.ClubID(),
		Name:    name,
		Code:    code,
		Creator: actor,
		Members: []string{actor},
		Admins:  []string{actor},
		Quests:  []string{},
	}

	err := r.repos.Update(func() error {
		user, err := r.repos.Users.EnsureExists(ctx, actor)
		if err != nil {
			return err
		}
		if err := r.repos.Clubs.Put(ctx, club); err != nil {
			return err
		}
		user.Club = &domain.Membership{ClubID: club.ID, ClubName: club.Name, Admin: true}
		if err := r.repos.Users.Put(ctx, user); err != nil {
			return err
		}
		s.setProfile(user)
		return nil
	})
	if err != nil {
		return domain.Club{}, err
	}
	r.logger.Info("club created", "club", club.ID, "name", club.Name, "creator", actor)
	return club, nil
}

// SearchClubs returns clubs whose code equals query, ignoring case and surrounding
// whitespace. An empty query returns no clubs and no error.
func (r *ClubRegistry) SearchClubs(ctx context.Context, query string) ([]domain.Club, error) {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	var matches []domain.Club
	for _, c := range r.repos.Clubs.Sorted(ctx) {
		if strings.ToUpper(c.Code) == query {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

// JoinClub adds the acting user to clubID as a regular member.
func (r *ClubRegistry) JoinClub(ctx context.Context, s *Session, clubID string) (domain.Club, error) {
	actor := s.Username()
	var club domain.Club
	err := r.repos.Update(func() error {
		var err error
		club, err = r.repos.Clubs.Get(ctx, clubID)
		if err != nil {
			return err
		}
		if club.HasMember(actor) {
			return domain.ErrAlreadyMember
		}
		user, err := r.repos.Users.EnsureExists(ctx, actor)
		if err != nil {
			return err
		}
		club.Members = append(club.Members, actor)
		if err := r.repos.Clubs.Put(ctx, club); err != nil {
			return err
		}
		user.Club = &domain.Membership{ClubID: club.ID, ClubName: club.Name}
		if err := r.repos.Users.Put(ctx, user); err != nil {
			return err
		}
		s.setProfile(user)
		return nil
	})
	if err != nil {
		return domain.Club{}, err
	}
	r.logger.Info("club joined", "club", club.ID, "user", actor)
	return club, nil
}

// LeaveClub removes the acting user from their club's members and admins.
// Creator and admin roles are not reassigned, so a club may be left without admins.
func (r *ClubRegistry) LeaveClub(ctx context.Context, s *Session) error {
	actor := s.Username()
	var clubID string
	err := r.repos.Update(func() error {
		user, err := r.repos.Users.Get(ctx, actor)
		if err != nil {
			return err
		}
		if !user.HasClub() {
			return domain.ErrNoClub
		}
		clubID = user.ClubID()
		club, err := r.repos.Clubs.Get(ctx, clubID)
		switch {
		case errors.Is(err, domain.ErrClubNotFound):
		case err != nil:
			return err
		default:
			club.Members = without(club.Members, actor)
			club.Admins = without(club.Admins, actor)
			if err := r.repos.Clubs.Put(ctx, club); err != nil {
				return err
			}
			if len(club.Admins) == 0 {
				r.logger.Warn("club has no admins left", "club", club.ID)
			}
		}
		user.Club = nil
		if err := r.repos.Users.Put(ctx, user); err != nil {
			return err
		}
		s.setProfile(user)
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Info("club left", "club", clubID, "user", actor)
	return nil
}

// ToggleAdmin grants or revokes admin rights of member in the acting admin's club.
// It returns the member's new admin status. The creator's status is immutable.
func (r *ClubRegistry) ToggleAdmin(ctx context.Context, s *Session, member string) (bool, error) {
	var nowAdmin bool
	err := r.repos.Update(func() error {
		club, err := loadAdminClub(ctx, r.repos, s.Username())
		if err != nil {
			return err
		}
		if club.Creator == member {
			return domain.ErrCreatorIsFixed
		}
		if !club.HasMember(member) {
			return domain.ErrNotClubMember
		}

		if club.HasAdmin(member) {
			club.Admins = without(club.Admins, member)
		} else {
			club.Admins = append(club.Admins, member)
			nowAdmin = true
		}
		if err := r.repos.Clubs.Put(ctx, club); err != nil {
			return err
		}

		target, err := r.repos.Users.EnsureExists(ctx, member)
		if err != nil {
			return err
		}
		if target.ClubID() == club.ID {
			target.Club.Admin = nowAdmin
			return r.repos.Users.Put(ctx, target)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	r.logger.Info("admin toggled", "club", s.Profile().ClubID(), "member", member, "admin", nowAdmin)
	return nowAdmin, nil
}

// CurrentClub returns the acting user's club with its roster ranked by points.
func (r *ClubRegistry) CurrentClub(ctx context.Context, s *Session) (domain.ClubView, error) {
	user, err := r.repos.Users.Get(ctx, s.Username())
	if err != nil {
		return domain.ClubView{}, err
	}
	s.setProfile(user)
	if !user.HasClub() {
		return domain.ClubView{}, domain.ErrNoClub
	}
	club, err := r.repos.Clubs.Get(ctx, user.ClubID())
	if err != nil {
		return domain.ClubView{}, err
	}

	users := r.repos.Users.All(ctx)
	roster := make([]domain.RosterEntry, 0, len(club.Members))
	for _, m := range club.Members {
		roster = append(roster, domain.RosterEntry{
			Name:      m,
			Points:    users[m].Points,
			IsCreator: club.Creator == m,
			IsAdmin:   club.HasAdmin(m),
		})
	}
	sort.SliceStable(roster, func(i, j int) bool {
		return roster[i].Points > roster[j].Points
	})
	return domain.ClubView{Club: club, Roster: roster}, nil
}

// loadAdminClub loads actor's club and checks actor is one of its admins.
func loadAdminClub(ctx context.Context, repos *Repositories, actor string) (domain.Club, error) {
	user, err := repos.Users.Get(ctx, actor)
	if err != nil {
		return domain.Club{}, err
	}
	if !user.HasClub() {
		return domain.Club{}, domain.ErrNoClub
	}
	club, err := repos.Clubs.Get(ctx, user.ClubID())
	if err != nil {
		return domain.Club{}, err
	}
	if !club.HasAdmin(actor) {
		return domain.Club{}, domain.ErrAdminOnly
	}
	return club, nil
}

func without(list []string, name string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != name {
			out = append(out, v)
		}
	}
	return out
}
