package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lernapp-service/internal/app"
	"lernapp-service/internal/domain"
)

func newMathQuest(count int) app.NewQuest {
	return app.NewQuest{
		Title:      "Add10",
		Subject:    domain.SubjectMath,
		Difficulty: domain.DifficultyEasy,
		Count:      count,
		Target:     app.AllMembers(),
	}
}

// completeActiveQuest starts the first active quest and answers correctly until it completes.
func completeActiveQuest(t *testing.T, env *testEnv, s *app.Session) domain.AnswerOutcome {
	t.Helper()
	ctx := context.Background()
	list := env.svc.Quests.ListQuests(ctx, s)
	if len(list.Active) == 0 {
		t.Fatalf("no active quest for %s", s.Username())
	}
	if _, ok, err := env.svc.Quests.StartQuest(ctx, s, list.Active[0].ID); err != nil || !ok {
		t.Fatalf("start quest ok=%v err=%v", ok, err)
	}
	for i := 0; i < list.Active[0].Count; i++ {
		outcome, err := env.svc.Quests.SubmitAnswer(ctx, s, s.Play().Task.Answer)
		if err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if outcome.QuestCompleted {
			return outcome
		}
		if _, err := env.svc.Quests.NextTask(s); err != nil {
			t.Fatalf("next task: %v", err)
		}
	}
	t.Fatalf("quest did not complete")
	return domain.AnswerOutcome{}
}

func TestDistributeToAllOtherMembers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, s := env.clubWithMembers(t, "anna", "ben", "cara")

	dist, err := env.svc.Quests.CreateAndDistributeQuest(ctx, s["anna"], newMathQuest(5))
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if !strings.HasPrefix(dist.Quest.ID, "quest_") || dist.Quest.CreatedBy != "anna" {
		t.Fatalf("unexpected template %+v", dist.Quest)
	}
	if len(dist.Recipients) != 2 || dist.Recipients[0] != "ben" || dist.Recipients[1] != "cara" {
		t.Fatalf("expected ben and cara, got %v", dist.Recipients)
	}
	for _, name := range []string{"ben", "cara"} {
		quests := env.quests(t, name)
		if len(quests) != 1 {
			t.Fatalf("%s: expected one clone, got %d", name, len(quests))
		}
		q := quests[0]
		if q.ID != dist.Quest.ID || q.Progress != 0 || q.Completed || q.Count != 5 || q.Title != "Add10" {
			t.Fatalf("%s: unexpected clone %+v", name, q)
		}
	}
	if len(env.quests(t, "anna")) != 0 {
		t.Fatalf("the creating admin must not receive the quest")
	}
}

func TestClonesProgressIndependently(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, s := env.clubWithMembers(t, "anna", "ben", "cara")
	dist, err := env.svc.Quests.CreateAndDistributeQuest(ctx, s["anna"], newMathQuest(3))
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}

	if _, ok, err := env.svc.Quests.StartQuest(ctx, s["ben"], dist.Quest.ID); err != nil || !ok {
		t.Fatalf("start: ok=%v err=%v", ok, err)
	}
	if _, err := env.svc.Quests.RecordAnswer(ctx, s["ben"], true); err != nil {
		t.Fatalf("record: %v", err)
	}

	if got := env.quests(t, "ben")[0].Progress; got != 1 {
		t.Fatalf("expected ben at 1, got %d", got)
	}
	if got := env.quests(t, "cara")[0]; got.Progress != 0 || got.Completed {
		t.Fatalf("cara's clone must be untouched, got %+v", got)
	}
}

func TestDistributeValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, s := env.clubWithMembers(t, "anna", "ben")
	loner := env.login(t, "zoe")

	cases := []struct {
		name    string
		session *app.Session
		quest   app.NewQuest
		want    error
	}{
		{"empty title", s["anna"], app.NewQuest{Title: " ", Subject: domain.SubjectMath, Difficulty: domain.DifficultyEasy, Count: 1, Target: app.AllMembers()}, domain.ErrEmptyQuestTitle},
		{"zero count", s["anna"], app.NewQuest{Title: "x", Subject: domain.SubjectMath, Difficulty: domain.DifficultyEasy, Count: 0, Target: app.AllMembers()}, domain.ErrInvalidCount},
		{"bad subject", s["anna"], app.NewQuest{Title: "x", Subject: "physics", Difficulty: domain.DifficultyEasy, Count: 1, Target: app.AllMembers()}, domain.ErrInvalidSubject},
		{"bad difficulty", s["anna"], app.NewQuest{Title: "x", Subject: domain.SubjectMath, Difficulty: "extreme", Count: 1, Target: app.AllMembers()}, domain.ErrInvalidLevel},
		{"not admin", s["ben"], newMathQuest(1), domain.ErrAdminOnly},
		{"no club", loner, newMathQuest(1), domain.ErrNoClub},
		{"non-member target", s["anna"], app.NewQuest{Title: "x", Subject: domain.SubjectMath, Difficulty: domain.DifficultyEasy, Count: 1, Target: app.SelectMembers("zoe")}, domain.ErrNotClubMember},
		{"empty selection", s["anna"], app.NewQuest{Title: "x", Subject: domain.SubjectMath, Difficulty: domain.DifficultyEasy, Count: 1, Target: app.SelectMembers()}, domain.ErrNoTargets},
	}
	for _, tc := range cases {
		if _, err := env.svc.Quests.CreateAndDistributeQuest(ctx, tc.session, tc.quest); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if len(env.quests(t, "ben")) != 0 {
		t.Fatalf("failed distributions must not write clones")
	}
}

func TestDistributeToSelectedMembers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, s := env.clubWithMembers(t, "anna", "ben", "cara")

	nq := newMathQuest(2)
	nq.Target = app.SelectMembers("cara", "cara", "anna")
	dist, err := env.svc.Quests.CreateAndDistributeQuest(ctx, s["anna"], nq)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if len(dist.Recipients) != 2 || dist.Recipients[0] != "cara" || dist.Recipients[1] != "anna" {
		t.Fatalf("expected deduplicated cara and explicitly chosen anna, got %v", dist.Recipients)
	}
	if len(env.quests(t, "cara")) != 1 || len(env.quests(t, "anna")) != 1 || len(env.quests(t, "ben")) != 0 {
		t.Fatalf("unexpected clone distribution")
	}
}

func TestFiveCorrectAnswersCompleteQuest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, s := env.clubWithMembers(t, "anna", "ben")
	dist, err := env.svc.Quests.CreateAndDistributeQuest(ctx, s["anna"], newMathQuest(5))
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}

	ben := s["ben"]
	play, ok, err := env.svc.Quests.StartQuest(ctx, ben, dist.Quest.ID)
	if err != nil || !ok || play.Mode != app.ModeQuest || play.Task == nil {
		t.Fatalf("expected quest mode with a task, got %+v ok=%v err=%v", play, ok, err)
	}

	for i := 1; i <= 5; i++ {
		outcome, err := env.svc.Quests.SubmitAnswer(ctx, ben, ben.Play().Task.Answer)
		if err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if !outcome.Correct || outcome.Progress != i {
			t.Fatalf("answer %d: unexpected outcome %+v", i, outcome)
		}
		q := env.quests(t, "ben")[0]
		if q.Completed != (q.Progress >= q.Count) {
			t.Fatalf("completed must track progress, got %+v", q)
		}
		if i < 5 {
			if outcome.QuestCompleted {
				t.Fatalf("completed too early at %d", i)
			}
			if _, err := env.svc.Quests.NextTask(ben); err != nil {
				t.Fatalf("next task: %v", err)
			}
			continue
		}
		if !outcome.QuestCompleted || outcome.PointsAwarded != 50 || outcome.TotalPoints != 50 {
			t.Fatalf("expected completion with 50 points, got %+v", outcome)
		}
	}

	q := env.quests(t, "ben")[0]
	if !q.Completed || q.Progress != 5 || q.Status() != domain.QuestCompleted {
		t.Fatalf("expected completed clone, got %+v", q)
	}
	if got := env.users(t)["ben"].Points; got != 50 {
		t.Fatalf("expected 50 points stored, got %d", got)
	}
	if mode := ben.Play().Mode; mode != app.ModePractice {
		t.Fatalf("expected free practice after completion, got %s", mode)
	}
	if list := env.svc.Quests.ListQuests(ctx, ben); list.Pending != 0 || len(list.Completed) != 1 {
		t.Fatalf("expected quest listed as completed, got %+v", list)
	}
}

func TestIncorrectAnswerChangesNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, s := env.clubWithMembers(t, "anna", "ben")
	dist, _ := env.svc.Quests.CreateAndDistributeQuest(ctx, s["anna"], newMathQuest(2))
	ben := s["ben"]
	if _, _, err := env.svc.Quests.StartQuest(ctx, ben, dist.Quest.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	outcome, err := env.svc.Quests.SubmitAnswer(ctx, ben, "not a number")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if outcome.Correct || outcome.Progress != 0 || outcome.Expected == "" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if q := env.quests(t, "ben")[0]; q.Progress != 0 || q.Status() != domain.QuestNotStarted {
		t.Fatalf("incorrect answer must not advance, got %+v", q)
	}
	if _, err := env.svc.Quests.SubmitAnswer(ctx, ben, "  "); !errors.Is(err, domain.ErrEmptyAnswer) {
		t.Fatalf("expected empty answer rejected, got %v", err)
	}
}

func TestStartQuestIgnoresUnknownAndCompleted(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, s := env.clubWithMembers(t, "anna", "ben")
	dist, _ := env.svc.Quests.CreateAndDistributeQuest(ctx, s["anna"], newMathQuest(1))
	ben := s["ben"]

	if play, ok, err := env.svc.Quests.StartQuest(ctx, ben, "quest_0"); err != nil || ok || play.Mode != app.ModeIdle {
		t.Fatalf("unknown quest must be a no-op, got %+v ok=%v err=%v", play, ok, err)
	}
	// anna never received the clone
	if _, ok, _ := env.svc.Quests.StartQuest(ctx, s["anna"], dist.Quest.ID); ok {
		t.Fatalf("quests of other users must not start")
	}

	completeActiveQuest(t, env, ben)
	env.svc.Quests.StopPlay(ben)
	if play, ok, err := env.svc.Quests.StartQuest(ctx, ben, dist.Quest.ID); err != nil || ok || play.Mode != app.ModeIdle {
		t.Fatalf("completed quest must not restart, got %+v ok=%v err=%v", play, ok, err)
	}
	if got := env.users(t)["ben"].Points; got != 10 {
		t.Fatalf("expected single award of 10, got %d", got)
	}
}

func TestStaleSessionCannotAwardTwice(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, s := env.clubWithMembers(t, "anna", "ben")
	dist, _ := env.svc.Quests.CreateAndDistributeQuest(ctx, s["anna"], newMathQuest(1))

	other, err := env.svc.Identity.Login(ctx, "ben", "pw")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	for _, sess := range []*app.Session{s["ben"], other} {
		if _, ok, err := env.svc.Quests.StartQuest(ctx, sess, dist.Quest.ID); err != nil || !ok {
			t.Fatalf("start: ok=%v err=%v", ok, err)
		}
	}
	if _, err := env.svc.Quests.RecordAnswer(ctx, s["ben"], true); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	if _, err := env.svc.Quests.RecordAnswer(ctx, other, true); !errors.Is(err, domain.ErrQuestCompleted) {
		t.Fatalf("expected already completed, got %v", err)
	}
	if other.Play().Mode != app.ModeIdle {
		t.Fatalf("stale session should leave quest mode")
	}
	if got := env.users(t)["ben"].Points; got != 10 {
		t.Fatalf("expected exactly one award, got %d", got)
	}
}

func TestCompleteQuestAwardsCountTimesTen(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, s := env.clubWithMembers(t, "anna", "ben")
	ben := s["ben"]

	if _, err := env.svc.Quests.CreateAndDistributeQuest(ctx, s["anna"], newMathQuest(2)); err != nil {
		t.Fatalf("distribute: %v", err)
	}
	completeActiveQuest(t, env, ben)
	if got := env.users(t)["ben"].Points; got != 20 {
		t.Fatalf("expected 20 points, got %d", got)
	}

	// A stored clone that reached its count without being marked completed.
	raw := `[{"id":"quest_1","title":"Legacy","subject":"english","difficulty":"hard","count":3,"progress":3,"completed":false,"createdBy":"anna","createdAt":"2024-03-01T08:00:00Z"}]`
	if err := env.store.Set(ctx, app.QuestsKey("ben"), raw); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok, err := env.svc.Quests.StartQuest(ctx, ben, "quest_1"); err != nil || !ok {
		t.Fatalf("start legacy quest: ok=%v err=%v", ok, err)
	}
	awarded, total, err := env.svc.Quests.CompleteQuest(ctx, ben)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if awarded != 30 || total != 50 {
		t.Fatalf("expected +30 on top of 20, got awarded=%d total=%d", awarded, total)
	}
	if _, _, err := env.svc.Quests.CompleteQuest(ctx, ben); !errors.Is(err, domain.ErrNoActiveQuest) {
		t.Fatalf("expected no active quest after completion, got %v", err)
	}
}

func TestCompleteQuestRequiresFinishedProgress(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, s := env.clubWithMembers(t, "anna", "ben")
	dist, _ := env.svc.Quests.CreateAndDistributeQuest(ctx, s["anna"], newMathQuest(2))

	if _, _, err := env.svc.Quests.StartQuest(ctx, s["ben"], dist.Quest.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := env.svc.Quests.CompleteQuest(ctx, s["ben"]); !errors.Is(err, domain.ErrQuestUnfinished) {
		t.Fatalf("expected unfinished, got %v", err)
	}
	if env.users(t)["ben"].Points != 0 {
		t.Fatalf("no points for unfinished quest")
	}
}

func TestAggregateQuestProgressAcrossClub(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, s := env.clubWithMembers(t, "anna", "ben", "cara")

	first, _ := env.svc.Quests.CreateAndDistributeQuest(ctx, s["anna"], newMathQuest(2))
	second := newMathQuest(1)
	second.Title = "Only cara"
	second.Target = app.SelectMembers("cara")
	if _, err := env.svc.Quests.CreateAndDistributeQuest(ctx, s["anna"], second); err != nil {
		t.Fatalf("second quest: %v", err)
	}

	if _, _, err := env.svc.Quests.StartQuest(ctx, s["ben"], first.Quest.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.svc.Quests.RecordAnswer(ctx, s["ben"], true); err != nil {
		t.Fatalf("record: %v", err)
	}

	reports, err := env.svc.Quests.AggregateQuestProgressAcrossClub(ctx, s["anna"])
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(reports) != 2 || reports[0].QuestID != first.Quest.ID || reports[1].Title != "Only cara" {
		t.Fatalf("unexpected reports %+v", reports)
	}
	members := reports[0].Members
	if len(members) != 2 || members[0].Member != "ben" || members[0].Progress != 1 || members[0].Status != domain.QuestInProgress {
		t.Fatalf("unexpected ben progress %+v", members)
	}
	if members[1].Member != "cara" || members[1].Status != domain.QuestNotStarted {
		t.Fatalf("unexpected cara progress %+v", members[1])
	}

	if _, err := env.svc.Quests.AggregateQuestProgressAcrossClub(ctx, s["ben"]); !errors.Is(err, domain.ErrAdminOnly) {
		t.Fatalf("expected admin-only, got %v", err)
	}
}

func TestFreePracticeNeverAwardsPoints(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	anna := env.login(t, "anna")

	if _, err := env.svc.Quests.SubmitAnswer(ctx, anna, "4"); !errors.Is(err, domain.ErrNotInPlay) {
		t.Fatalf("expected not in play, got %v", err)
	}
	if _, err := env.svc.Quests.StartPractice(anna, "art"); !errors.Is(err, domain.ErrInvalidSubject) {
		t.Fatalf("expected invalid subject, got %v", err)
	}
	play, err := env.svc.Quests.StartPractice(anna, domain.SubjectGerman)
	if err != nil || play.Mode != app.ModePractice || play.Task == nil {
		t.Fatalf("practice: %+v err=%v", play, err)
	}
	outcome, err := env.svc.Quests.SubmitAnswer(ctx, anna, strings.ToUpper(play.Task.Answer))
	if err != nil || !outcome.Correct || outcome.PointsAwarded != 0 {
		t.Fatalf("expected correct case-insensitive answer without points, got %+v err=%v", outcome, err)
	}
	if _, err := env.svc.Quests.RecordAnswer(ctx, anna, true); !errors.Is(err, domain.ErrNoActiveQuest) {
		t.Fatalf("expected no active quest in practice, got %v", err)
	}
	if env.users(t)["anna"].Points != 0 {
		t.Fatalf("practice must not award points")
	}
}
