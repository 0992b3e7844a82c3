package app

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	clubIDPrefix  = "club_"
	questIDPrefix = "quest_"
	codeLength    = 6
	codeAlphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// IDGenerator issues "<prefix><epoch millis>" ids. Within one process the millis
// part is strictly increasing, so two creations in the same millisecond differ.
type IDGenerator struct {
	now func() time.Time

	mu   sync.Mutex
	last int64
	rnd  *rand.Rand
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{
		now: now,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewIDGeneratorWithSeed is test-only for deterministic join codes.
func NewIDGeneratorWithSeed(now func() time.Time, seed int64) *IDGenerator {
	g := NewIDGenerator(now)
	g.rnd = rand.New(rand.NewSource(seed))
	return g
}

func (g *IDGenerator) ClubID() string {
	return clubIDPrefix + strconv.FormatInt(g.nextMillis(), 10)
}

func (g *IDGenerator) QuestID() string {
	return questIDPrefix + strconv.FormatInt(g.nextMillis(), 10)
}

// JoinCode returns a 6-character uppercase base-36 token.
func (g *IDGenerator) JoinCode() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var b strings.Builder
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[g.rnd.Intn(len(codeAlphabet))])
	}
	return b.String()
}

// Now exposes the generator clock so timestamps line up with ids.
func (g *IDGenerator) Now() time.Time {
	return g.now()
}

func (g *IDGenerator) nextMillis() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return ms
}
