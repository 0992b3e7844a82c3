package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lernapp-service/internal/domain"
	"lernapp-service/internal/tasks"

	"golang.org/x/sync/errgroup"
)

// TaskSource produces practice tasks.
type TaskSource interface {
	Generate(subject domain.Subject, difficulty domain.Difficulty) (domain.Task, error)
}

// TargetSelector picks the recipients of a new quest: every other club member,
// or an explicit list taken from the club roster.
type TargetSelector struct {
	All     bool
	Members []string
}

func AllMembers() TargetSelector { return TargetSelector{All: true} }

func SelectMembers(names ...string) TargetSelector { return TargetSelector{Members: names} }

// NewQuest is the admin's quest form.
type NewQuest struct {
	Title      string
	Subject    domain.Subject
	Difficulty domain.Difficulty
	Count      int
	Target     TargetSelector
}

// Distribution reports a created quest and who received a clone of it.
type Distribution struct {
	Quest      domain.Quest `json:"quest"`
	Recipients []string     `json:"recipients"`
}

// QuestEngine creates, distributes and progresses quests, and runs play mode.
type QuestEngine struct {
	repos  *Repositories
	ids    *IDGenerator
	tasks  TaskSource
	logger *slog.Logger
}

func NewQuestEngine(repos *Repositories, ids *IDGenerator, source TaskSource, logger *slog.Logger) *QuestEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestEngine{repos: repos, ids: ids, tasks: source, logger: logger}
}

// CreateAndDistributeQuest appends an independent clone of a new quest to every
// target member's list. All clones share one id.
func (e *QuestEngine) CreateAndDistributeQuest(ctx context.Context, s *Session, nq NewQuest) (Distribution, error) {
	nq.Title = strings.TrimSpace(nq.Title)
	switch {
	case nq.Title == "":
		return Distribution{}, domain.ErrEmptyQuestTitle
	case nq.Count < 1:
		return Distribution{}, domain.ErrInvalidCount
	case !nq.Subject.Valid():
		return Distribution{}, domain.ErrInvalidSubject
	case !nq.Difficulty.Valid():
		return Distribution{}, domain.ErrInvalidLevel
	}

	actor := s.Username()
	var dist Distribution
	err := e.repos.Update(func() error {
		club, err := loadAdminClub(ctx, e.repos, actor)
		if err != nil {
			return err
		}
		targets, err := resolveTargets(club, actor, nq.Target)
		if err != nil {
			return err
		}

		template := domain.Quest{
			ID:         e.ids.QuestID(),
			Title:      nq.Title,
			Subject:    nq.Subject,
			Difficulty: nq.Difficulty,
			Count:      nq.Count,
			CreatedBy:  actor,
			CreatedAt:  e.ids.Now().UTC().Truncate(time.Millisecond),
		}

		// Read every list first so an unreadable one aborts before anything is written.
		lists := make([][]domain.Quest, len(targets))
		for i, member := range targets {
			quests, err := e.repos.Quests.load(ctx, member)
			if err != nil {
				return err
			}
			lists[i] = quests
		}
		for i, member := range targets {
			if err := e.repos.Quests.Save(ctx, member, append(lists[i], template)); err != nil {
				return &PartialDistributionError{QuestID: template.ID, Delivered: targets[:i], Err: err}
			}
		}
		dist = Distribution{Quest: template, Recipients: targets}
		return nil
	})
	if err != nil {
		var partial *PartialDistributionError
		if errors.As(err, &partial) {
			e.logger.Warn("quest partially distributed", "quest", partial.QuestID, "delivered", partial.Delivered, "err", partial.Err)
		}
		return Distribution{}, err
	}
	e.logger.Info("quest distributed", "quest", dist.Quest.ID, "title", dist.Quest.Title, "recipients", len(dist.Recipients))
	return dist, nil
}

// PartialDistributionError reports a distribution that stopped at a failed write.
// Delivered lists the members whose clone was already saved.
type PartialDistributionError struct {
	QuestID   string
	Delivered []string
	Err       error
}

func (e *PartialDistributionError) Error() string {
	return fmt.Sprintf("quest %s delivered to %d member(s) before failing: %v", e.QuestID, len(e.Delivered), e.Err)
}

func (e *PartialDistributionError) Unwrap() error { return e.Err }

func resolveTargets(club domain.Club, actor string, sel TargetSelector) ([]string, error) {
	var targets []string
	if sel.All {
		targets = without(club.Members, actor)
	} else {
		seen := map[string]bool{}
		for _, name := range sel.Members {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			if !club.HasMember(name) {
				return nil, domain.ErrNotClubMember
			}
			seen[name] = true
			targets = append(targets, name)
		}
	}
	if len(targets) == 0 {
		return nil, domain.ErrNoTargets
	}
	return targets, nil
}

// ListQuests splits the acting user's quests into active and completed.
func (e *QuestEngine) ListQuests(ctx context.Context, s *Session) domain.QuestList {
	list := domain.QuestList{Active: []domain.Quest{}, Completed: []domain.Quest{}}
	for _, q := range e.repos.Quests.List(ctx, s.Username()) {
		if q.Completed {
			list.Completed = append(list.Completed, q)
		} else {
			list.Active = append(list.Active, q)
		}
	}
	list.Pending = len(list.Active)
	return list
}

// StartQuest enters quest mode for one of the user's own active quests and
// generates the first task. Unknown or completed quests are ignored: ok is false
// and nothing changes.
func (e *QuestEngine) StartQuest(ctx context.Context, s *Session, questID string) (PlayState, bool, error) {
	q, err := e.repos.Quests.Find(ctx, s.Username(), questID)
	if err != nil && !errors.Is(err, domain.ErrQuestNotFound) {
		return PlayState{}, false, err
	}
	if err != nil || q.Completed {
		return s.Play(), false, nil
	}
	s.enter(PlayState{
		Mode:       ModeQuest,
		Subject:    q.Subject,
		Difficulty: q.Difficulty,
		QuestID:    q.ID,
	})
	if _, err := e.NextTask(s); err != nil {
		return PlayState{}, false, err
	}
	return s.Play(), true, nil
}

// StartPractice enters free practice for subject. Free practice never awards points.
func (e *QuestEngine) StartPractice(s *Session, subject domain.Subject) (PlayState, error) {
	if !subject.Valid() {
		return PlayState{}, domain.ErrInvalidSubject
	}
	s.enter(PlayState{
		Mode:       ModePractice,
		Subject:    subject,
		Difficulty: domain.DifficultyEasy,
	})
	if _, err := e.NextTask(s); err != nil {
		return PlayState{}, err
	}
	return s.Play(), nil
}

// NextTask generates a task for the current screen.
func (e *QuestEngine) NextTask(s *Session) (domain.Task, error) {
	play := s.Play()
	if play.Mode == ModeIdle {
		return domain.Task{}, domain.ErrNotInPlay
	}
	task, err := e.tasks.Generate(play.Subject, play.Difficulty)
	if err != nil {
		return domain.Task{}, err
	}
	s.setTask(task)
	return task, nil
}

// StopPlay leaves the learning screen and drops pending continuations.
func (e *QuestEngine) StopPlay(s *Session) {
	s.enter(PlayState{Mode: ModeIdle})
}

// SubmitAnswer checks answer against the current task and, in quest mode,
// records the result.
func (e *QuestEngine) SubmitAnswer(ctx context.Context, s *Session, answer string) (domain.AnswerOutcome, error) {
	if strings.TrimSpace(answer) == "" {
		return domain.AnswerOutcome{}, domain.ErrEmptyAnswer
	}
	play := s.Play()
	if play.Mode == ModeIdle || play.Task == nil {
		return domain.AnswerOutcome{}, domain.ErrNotInPlay
	}

	correct := tasks.Check(*play.Task, answer)
	if play.Mode != ModeQuest {
		return domain.AnswerOutcome{
			Correct:     correct,
			Expected:    play.Task.Answer,
			TotalPoints: s.Profile().Points,
		}, nil
	}

	outcome, err := e.RecordAnswer(ctx, s, correct)
	if err != nil {
		return domain.AnswerOutcome{}, err
	}
	outcome.Expected = play.Task.Answer
	return outcome, nil
}

// RecordAnswer advances the active quest on a correct answer and completes it
// once progress reaches its count. Incorrect answers change nothing.
func (e *QuestEngine) RecordAnswer(ctx context.Context, s *Session, correct bool) (domain.AnswerOutcome, error) {
	play := s.Play()
	if play.Mode != ModeQuest {
		return domain.AnswerOutcome{}, domain.ErrNoActiveQuest
	}

	var outcome domain.AnswerOutcome
	err := e.repos.Update(func() error {
		q, err := e.repos.Quests.Find(ctx, s.Username(), play.QuestID)
		if err != nil {
			return err
		}
		if q.Completed {
			return domain.ErrQuestCompleted
		}
		outcome = domain.AnswerOutcome{
			Correct:     correct,
			QuestID:     q.ID,
			Progress:    q.Progress,
			Count:       q.Count,
			TotalPoints: s.Profile().Points,
		}
		if !correct {
			return nil
		}

		if done := q.Advance(); !done {
			outcome.Progress = q.Progress
			return e.repos.Quests.Replace(ctx, s.Username(), q)
		}
		awarded, total, err := e.completeLocked(ctx, s, q)
		if err != nil {
			return err
		}
		outcome.Progress = q.Progress
		outcome.QuestCompleted = true
		outcome.PointsAwarded = awarded
		outcome.TotalPoints = total
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrQuestCompleted) {
			e.StopPlay(s)
		}
		return domain.AnswerOutcome{}, err
	}
	if outcome.QuestCompleted {
		e.returnToPractice(s, play.Subject)
		e.logger.Info("quest completed", "quest", outcome.QuestID, "user", s.Username(), "points", outcome.PointsAwarded)
	}
	return outcome, nil
}

// CompleteQuest finishes the active quest once its progress has reached its count:
// it marks the clone completed, awards count*10 points and returns to free practice.
func (e *QuestEngine) CompleteQuest(ctx context.Context, s *Session) (awarded, total int, err error) {
	play := s.Play()
	if play.Mode != ModeQuest {
		return 0, 0, domain.ErrNoActiveQuest
	}
	err = e.repos.Update(func() error {
		q, err := e.repos.Quests.Find(ctx, s.Username(), play.QuestID)
		if err != nil {
			return err
		}
		if q.Completed {
			return domain.ErrQuestCompleted
		}
		if q.Progress < q.Count {
			return domain.ErrQuestUnfinished
		}
		q.Completed = true
		awarded, total, err = e.completeLocked(ctx, s, q)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	e.returnToPractice(s, play.Subject)
	return awarded, total, nil
}

// returnToPractice leaves quest mode for free practice in the same subject. The
// next task is generated by the caller's continuation.
func (e *QuestEngine) returnToPractice(s *Session, subject domain.Subject) {
	s.enter(PlayState{
		Mode:       ModePractice,
		Subject:    subject,
		Difficulty: domain.DifficultyEasy,
	})
}

// completeLocked persists a completed clone and credits its reward. Callers hold the write lock.
func (e *QuestEngine) completeLocked(ctx context.Context, s *Session, q domain.Quest) (int, int, error) {
	if err := e.repos.Quests.Replace(ctx, s.Username(), q); err != nil {
		return 0, 0, err
	}
	user, err := e.repos.Users.EnsureExists(ctx, s.Username())
	if err != nil {
		return 0, 0, err
	}
	reward := q.Reward()
	user.Points += reward
	if err := e.repos.Users.Put(ctx, user); err != nil {
		return 0, 0, err
	}
	s.setProfile(user)
	return reward, user.Points, nil
}

// AggregateQuestProgressAcrossClub joins every member's clones by quest id for
// the admin report. It reads only.
func (e *QuestEngine) AggregateQuestProgressAcrossClub(ctx context.Context, s *Session) ([]domain.QuestProgressReport, error) {
	club, err := loadAdminClub(ctx, e.repos, s.Username())
	if err != nil {
		return nil, err
	}

	lists := make([][]domain.Quest, len(club.Members))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, member := range club.Members {
		i, member := i, member
		g.Go(func() error {
			lists[i] = e.repos.Quests.List(gctx, member)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reports := []domain.QuestProgressReport{}
	index := map[string]int{}
	for i, member := range club.Members {
		for _, q := range lists[i] {
			pos, ok := index[q.ID]
			if !ok {
				pos = len(reports)
				index[q.ID] = pos
				reports = append(reports, domain.QuestProgressReport{
					QuestID:    q.ID,
					Title:      q.Title,
					Subject:    q.Subject,
					Difficulty: q.Difficulty,
					Count:      q.Count,
				})
			}
			reports[pos].Members = append(reports[pos].Members, domain.MemberProgress{
				Member:    member,
				Progress:  q.Progress,
				Completed: q.Completed,
				Status:    q.Status(),
			})
		}
	}
	return reports, nil
}
