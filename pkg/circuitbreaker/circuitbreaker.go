// Package circuitbreaker stops calling a failing dependency for a cooldown
// period and lets a few probe calls through before trusting it again.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

type State uint8

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrOpen is returned without calling fn while the breaker is open or all
// half-open probe slots are taken.
var ErrOpen = errors.New("circuitbreaker: open")

type Settings struct {
	Name string
	// FailureThreshold consecutive failures open a closed breaker.
	FailureThreshold int
	Cooldown         time.Duration
	// Probes is both the number of concurrent half-open calls and the number
	// of successes needed to close again.
	Probes int
	// IsFailure decides which errors count. Context cancellation never does.
	IsFailure     func(error) bool
	OnStateChange func(name string, from, to State)
}

func (s Settings) withDefaults() Settings {
	if s.FailureThreshold <= 0 {
		s.FailureThreshold = 5
	}
	if s.Cooldown <= 0 {
		s.Cooldown = 30 * time.Second
	}
	if s.Probes <= 0 {
		s.Probes = 1
	}
	if s.IsFailure == nil {
		s.IsFailure = func(err error) bool { return err != nil }
	}
	return s
}

// Snapshot is a point-in-time view of the breaker counters.
type Snapshot struct {
	State    State
	Failures int
	OpenedAt time.Time
}

type Breaker struct {
	settings Settings
	now      func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	inFlight  int
	successes int
	openedAt  time.Time
}

func New(settings Settings) *Breaker {
	return &Breaker{settings: settings.withDefaults(), now: time.Now}
}

// Execute runs fn unless the breaker rejects it, and records the outcome.
func (b *Breaker) Execute(fn func() error) error {
	probe, err := b.admit()
	if err != nil {
		return err
	}

	callErr := fn()
	b.record(probe, b.counts(callErr))
	return callErr
}

func (b *Breaker) counts(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return b.settings.IsFailure(err)
}

func (b *Breaker) admit() (probe bool, err error) {
	b.mu.Lock()
	from := b.state

	if b.state == Open && !b.now().Before(b.openedAt.Add(b.settings.Cooldown)) {
		b.state = HalfOpen
		b.successes = 0
		b.inFlight = 0
	}

	switch b.state {
	case Open:
		err = ErrOpen
	case HalfOpen:
		if b.inFlight >= b.settings.Probes {
			err = ErrOpen
		} else {
			b.inFlight++
			probe = true
		}
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
	return probe, err
}

func (b *Breaker) record(probe, failed bool) {
	b.mu.Lock()
	from := b.state

	switch {
	case b.state == HalfOpen && probe:
		b.inFlight--
		if failed {
			b.trip()
		} else if b.successes++; b.successes >= b.settings.Probes {
			b.state = Closed
			b.failures = 0
		}
	case b.state == Closed && failed:
		b.failures++
		if b.failures >= b.settings.FailureThreshold {
			b.trip()
		}
	case b.state == Closed:
		b.failures = 0
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

// trip opens the breaker. Caller holds mu.
func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.inFlight = 0
	b.successes = 0
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.settings.Name, from, to)
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{State: b.state, Failures: b.failures, OpenedAt: b.openedAt}
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	from := b.state
	b.state = Closed
	b.failures = 0
	b.inFlight = 0
	b.successes = 0
	b.mu.Unlock()

	b.notify(from, Closed)
}
