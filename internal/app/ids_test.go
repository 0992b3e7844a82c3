package app_test

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"lernapp-service/internal/app"
)

func TestIDsStrictlyIncreaseWithinOneMillisecond(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	ids := app.NewIDGenerator(func() time.Time { return frozen })

	club := ids.ClubID()
	quest := ids.QuestID()
	next := ids.ClubID()
	if club != "club_1700000000000" {
		t.Fatalf("unexpected club id %q", club)
	}
	if quest != "quest_1700000000001" || next != "club_1700000000002" {
		t.Fatalf("expected increasing millis, got %q and %q", quest, next)
	}
}

func TestIDsFollowClock(t *testing.T) {
	now := time.UnixMilli(1_000)
	ids := app.NewIDGenerator(func() time.Time { return now })
	_ = ids.QuestID()
	now = now.Add(time.Second)
	got := strings.TrimPrefix(ids.QuestID(), "quest_")
	if ms, err := strconv.ParseInt(got, 10, 64); err != nil || ms != 2_000 {
		t.Fatalf("expected id at clock time, got %q", got)
	}
}

func TestJoinCodeShape(t *testing.T) {
	ids := app.NewIDGeneratorWithSeed(nil, 42)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code := ids.JoinCode()
		if !codePattern.MatchString(code) {
			t.Fatalf("unexpected code %q", code)
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Fatalf("expected mostly distinct codes, got %d", len(seen))
	}
	again := app.NewIDGeneratorWithSeed(nil, 42)
	first := app.NewIDGeneratorWithSeed(nil, 42).JoinCode()
	if again.JoinCode() != first {
		t.Fatalf("same seed must give the same codes")
	}
}
