package tasks

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"lernapp-service/internal/domain"
)

func TestMathTasksStayInRange(t *testing.T) {
	g := NewGeneratorWithSeed(1)
	limits := map[domain.Difficulty]int{
		domain.DifficultyEasy:   9,
		domain.DifficultyMedium: 50,
		domain.DifficultyHard:   100,
	}
	for difficulty, limit := range limits {
		for i := 0; i < 200; i++ {
			task, err := g.Generate(domain.SubjectMath, difficulty)
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			var a, b int
			var op string
			if _, err := fmt.Sscanf(task.Prompt, "%d %s %d = ?", &a, &op, &b); err != nil {
				t.Fatalf("unexpected prompt %q: %v", task.Prompt, err)
			}
			if op != "/" && (a > limit || b > limit) {
				t.Fatalf("%s: operands out of range in %q", difficulty, task.Prompt)
			}
			if difficulty == domain.DifficultyEasy && op != "+" && op != "-" {
				t.Fatalf("easy tasks only add or subtract, got %q", task.Prompt)
			}
			answer, err := strconv.Atoi(task.Answer)
			if err != nil || answer < 0 {
				t.Fatalf("expected non-negative integer answer for %q, got %q", task.Prompt, task.Answer)
			}
			if !Check(task, task.Answer) {
				t.Fatalf("expected answer %q accepted for %q", task.Answer, task.Prompt)
			}
		}
	}
}

func TestLanguageTasksComeFromBanks(t *testing.T) {
	g := NewGeneratorWithSeed(3)
	for _, subject := range []domain.Subject{domain.SubjectGerman, domain.SubjectEnglish} {
		for _, difficulty := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard} {
			task, err := g.Generate(subject, difficulty)
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			found := false
			for _, it := range banks[subject][difficulty] {
				if it.prompt == task.Prompt {
					found = true
				}
			}
			if !found || task.Subject != subject || task.Difficulty != difficulty {
				t.Fatalf("unexpected task %+v", task)
			}
		}
	}
}

func TestGenerateRejectsUnknownInput(t *testing.T) {
	g := NewGeneratorWithSeed(1)
	if _, err := g.Generate("art", domain.DifficultyEasy); !errors.Is(err, domain.ErrInvalidSubject) {
		t.Fatalf("expected invalid subject, got %v", err)
	}
	if _, err := g.Generate(domain.SubjectMath, "extreme"); !errors.Is(err, domain.ErrInvalidLevel) {
		t.Fatalf("expected invalid level, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	math := domain.Task{Subject: domain.SubjectMath, Answer: "12"}
	cases := []struct {
		task   domain.Task
		answer string
		want   bool
	}{
		{math, "12", true},
		{math, " 12.0 ", true},
		{math, "13", false},
		{math, "twelve", false},
		{domain.Task{Subject: domain.SubjectEnglish, Answer: "good morning"}, "  Good Morning ", true},
		{domain.Task{Subject: domain.SubjectGerman, Answer: "häuser"}, "HÄUSER", true},
		{domain.Task{Subject: domain.SubjectGerman, Answer: "die"}, "der", false},
	}
	for _, tc := range cases {
		if got := Check(tc.task, tc.answer); got != tc.want {
			t.Fatalf("Check(%q, %q) = %v, want %v", tc.task.Answer, tc.answer, got, tc.want)
		}
	}
}
