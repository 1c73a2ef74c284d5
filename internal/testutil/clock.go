package testutil

import (
	"strconv"
	"sync"
	"time"
)

// FixedTime is the instant FixedClock starts at.
var FixedTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// StubClock is a mix.Clock frozen at a single instant.
type StubClock struct {
	now time.Time
}

// NewStubClock creates a StubClock set to t.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to FixedTime.
func FixedClock() *StubClock {
	return NewStubClock(FixedTime)
}

func (c *StubClock) Now() time.Time { return c.now }

// StubIDGenerator is a mix.IDGenerator handing out "<prefix>-1",
// "<prefix>-2", ... The prefix defaults to "id".
type StubIDGenerator struct {
	Prefix string

	mu   sync.Mutex
	next int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{Prefix: "id"}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return g.Prefix + "-" + strconv.Itoa(g.next)
}
