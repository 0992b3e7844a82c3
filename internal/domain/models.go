package domain

import (
	"encoding/json"
	"time"
)

// Subject is the learning area a task or quest belongs to.
type Subject string

const (
	SubjectMath    Subject = "math"
	SubjectGerman  Subject = "german"
	SubjectEnglish Subject = "english"
)

// Valid reports whether s is one of the known subjects.
func (s Subject) Valid() bool {
	switch s {
	case SubjectMath, SubjectGerman, SubjectEnglish:
		return true
	}
	return false
}

// Difficulty controls how hard generated tasks are.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Membership is the "has club" side of a user's club affiliation.
// A user without a club carries a nil *Membership.
type Membership struct {
	ClubID   string
	ClubName string
	Admin    bool
}

// User is the persisted profile of a learner.
type User struct {
	Name   string
	Points int
	Club   *Membership
}

// HasClub reports whether the user belongs to a club.
func (u User) HasClub() bool {
	return u.Club != nil
}

// IsAdmin is only ever true for a user with a club.
func (u User) IsAdmin() bool {
	return u.Club != nil && u.Club.Admin
}

// ClubID returns the user's club id or "" when the user has no club.
func (u User) ClubID() string {
	if u.Club == nil {
		return ""
	}
	return u.Club.ClubID
}

// userRecord is the flat JSON shape stored under lernapp-users.
type userRecord struct {
	Name     string  `json:"name"`
	Points   int     `json:"points"`
	ClubID   *string `json:"clubId"`
	ClubName *string `json:"clubName"`
	IsAdmin  bool    `json:"isAdmin"`
}

func (u User) MarshalJSON() ([]byte, error) {
	rec := userRecord{Name: u.Name, Points: u.Points}
	if u.Club != nil {
		id, name := u.Club.ClubID, u.Club.ClubName
		rec.ClubID = &id
		rec.ClubName = &name
		rec.IsAdmin = u.Club.Admin
	}
	return json.Marshal(rec)
}

func (u *User) UnmarshalJSON(data []byte) error {
	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	u.Name = rec.Name
	u.Points = rec.Points
	if u.Points < 0 {
		u.Points = 0
	}
	u.Club = nil
	if rec.ClubID != nil && *rec.ClubID != "" {
		m := &Membership{ClubID: *rec.ClubID, Admin: rec.IsAdmin}
		if rec.ClubName != nil {
			m.ClubName = *rec.ClubName
		}
		u.Club = m
	}
	return nil
}

// Club is a named group with a join code, members and admins.
// Quests is kept for record compatibility; distribution never reads it.
type Club struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Code    string   `json:"code"`
	Creator string   `json:"creator"`
	Members []string `json:"members"`
	Admins  []string `json:"admins"`
	Quests  []string `json:"quests"`
}

func (c Club) HasMember(name string) bool {
	return contains(c.Members, name)
}

func (c Club) HasAdmin(name string) bool {
	return contains(c.Admins, name)
}

// QuestStatus is the derived lifecycle state of a quest clone.
type QuestStatus string

const (
	QuestNotStarted QuestStatus = "not_started"
	QuestInProgress QuestStatus = "in_progress"
	QuestCompleted  QuestStatus = "completed"
)

// Quest is one member's private clone of a distributed quest.
type Quest struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Subject    Subject    `json:"subject"`
	Difficulty Difficulty `json:"difficulty"`
	Count      int        `json:"count"`
	Progress   int        `json:"progress"`
	Completed  bool       `json:"completed"`
	CreatedBy  string     `json:"createdBy"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Status derives the lifecycle state from progress.
func (q Quest) Status() QuestStatus {
	switch {
	case q.Completed || q.Progress >= q.Count:
		return QuestCompleted
	case q.Progress > 0:
		return QuestInProgress
	default:
		return QuestNotStarted
	}
}

// Reward is the number of points granted on completion.
func (q Quest) Reward() int {
	return q.Count * PointsPerTask
}

// Advance records one correct answer and reports whether the quest just completed.
// Completed quests are left untouched.
func (q *Quest) Advance() bool {
	if q.Completed {
		return false
	}
	q.Progress++
	if q.Progress >= q.Count {
		q.Progress = q.Count
		q.Completed = true
		return true
	}
	return false
}

// PointsPerTask is multiplied by a quest's count on completion.
const PointsPerTask = 10

// LeaderboardEntry is one row of the global ranking.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Name     string `json:"name"`
	Points   int    `json:"points"`
	ClubName string `json:"clubName,omitempty"`
}

// RosterEntry is one member row of a club view.
type RosterEntry struct {
	Name      string `json:"name"`
	Points    int    `json:"points"`
	IsCreator bool   `json:"isCreator"`
	IsAdmin   bool   `json:"isAdmin"`
}

// ClubView is the club tab: club details plus a points-ranked roster.
type ClubView struct {
	Club   Club          `json:"club"`
	Roster []RosterEntry `json:"roster"`
}

// MemberProgress is one member's state for a quest in the admin report.
type MemberProgress struct {
	Member    string      `json:"member"`
	Progress  int         `json:"progress"`
	Completed bool        `json:"completed"`
	Status    QuestStatus `json:"status"`
}

// QuestProgressReport merges all clones sharing one quest id.
type QuestProgressReport struct {
	QuestID    string           `json:"questId"`
	Title      string           `json:"title"`
	Subject    Subject          `json:"subject"`
	Difficulty Difficulty       `json:"difficulty"`
	Count      int              `json:"count"`
	Members    []MemberProgress `json:"members"`
}

// QuestList splits a user's quests the way the quest tab shows them.
type QuestList struct {
	Active    []Quest `json:"active"`
	Completed []Quest `json:"completed"`
	Pending   int     `json:"pending"`
}

// Task is a generated prompt with its expected answer.
type Task struct {
	Subject    Subject    `json:"subject"`
	Difficulty Difficulty `json:"difficulty"`
	Prompt     string     `json:"prompt"`
	Answer     string     `json:"-"`
}

// AnswerOutcome summarizes a submitted answer in play mode.
type AnswerOutcome struct {
	Correct        bool   `json:"correct"`
	Expected       string `json:"expected"`
	QuestID        string `json:"questId,omitempty"`
	Progress       int    `json:"progress,omitempty"`
	Count          int    `json:"count,omitempty"`
	QuestCompleted bool   `json:"questCompleted"`
	PointsAwarded  int    `json:"pointsAwarded"`
	TotalPoints    int    `json:"totalPoints"`
}

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}
