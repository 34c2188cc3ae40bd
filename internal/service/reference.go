package service

import (
	"strconv"
	"sync"
	"time"
)

const referencePrefix = "COWORKING-"

// ReferenceGenerator issues COWORKING-<unix millis> references. Two calls in
// the same millisecond get consecutive values, so references never repeat
// within a process.
type ReferenceGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewReferenceGenerator(now func() time.Time) *ReferenceGenerator {
	if now == nil {
		now = time.Now
	}
	return &ReferenceGenerator{now: now}
}

func (g *ReferenceGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now().UnixMilli()
	if ts <= g.last {
		ts = g.last + 1
	}
	g.last = ts
	return referencePrefix + strconv.FormatInt(ts, 10)
}
