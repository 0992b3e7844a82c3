// Package tasks produces practice prompts for each subject and difficulty and
// checks submitted answers against them.
package tasks

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"lernapp-service/internal/domain"
)

// Generator is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGenerator() *Generator {
	return NewGeneratorWithSeed(time.Now().UnixNano())
}

// NewGeneratorWithSeed is test-only for reproducible tasks.
func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate returns a fresh task for subject at difficulty.
func (g *Generator) Generate(subject domain.Subject, difficulty domain.Difficulty) (domain.Task, error) {
	if !subject.Valid() {
		return domain.Task{}, domain.ErrInvalidSubject
	}
	if !difficulty.Valid() {
		return domain.Task{}, domain.ErrInvalidLevel
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	task := domain.Task{Subject: subject, Difficulty: difficulty}
	switch subject {
	case domain.SubjectMath:
		task.Prompt, task.Answer = g.math(difficulty)
	default:
		bank := banks[subject][difficulty]
		item := bank[g.rnd.Intn(len(bank))]
		task.Prompt, task.Answer = item.prompt, strings.ToLower(item.answer)
	}
	return task, nil
}

func (g *Generator) math(difficulty domain.Difficulty) (string, string) {
	var a, b, solution int
	var op string

	switch difficulty {
	case domain.DifficultyMedium:
		a, b = g.rnd.Intn(50)+1, g.rnd.Intn(50)+1
		op = []string{"+", "-", "*"}[g.rnd.Intn(3)]
		if op == "*" {
			a, b = g.rnd.Intn(12)+1, g.rnd.Intn(12)+1
		}
	case domain.DifficultyHard:
		a, b = g.rnd.Intn(100)+1, g.rnd.Intn(100)+1
		op = []string{"+", "-", "*", "/"}[g.rnd.Intn(4)]
		switch op {
		case "*":
			a, b = g.rnd.Intn(25)+1, g.rnd.Intn(25)+1
		case "/":
			b = g.rnd.Intn(12) + 1
			solution = g.rnd.Intn(20) + 1
			a = solution * b
			return fmt.Sprintf("%d / %d = ?", a, b), strconv.Itoa(solution)
		}
	default:
		a, b = g.rnd.Intn(10), g.rnd.Intn(10)
		op = []string{"+", "-"}[g.rnd.Intn(2)]
	}

	// no negative results
	if op == "-" && a < b {
		a, b = b, a
	}
	switch op {
	case "+":
		solution = a + b
	case "-":
		solution = a - b
	case "*":
		solution = a * b
	}
	return fmt.Sprintf("%d %s %d = ?", a, op, b), strconv.Itoa(solution)
}

// Check compares answer with the task's expected answer: numerically for math,
// case-insensitively after trimming for languages.
func Check(task domain.Task, answer string) bool {
	answer = strings.TrimSpace(answer)
	if task.Subject == domain.SubjectMath {
		got, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			return false
		}
		want, err := strconv.ParseFloat(strings.TrimSpace(task.Answer), 64)
		if err != nil {
			return false
		}
		return got == want
	}
	return strings.EqualFold(answer, strings.TrimSpace(task.Answer))
}
