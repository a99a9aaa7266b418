package gameanalytics

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock samples a monotonic instant. time.Now carries a monotonic reading,
// so Sub between two samples is immune to wall-clock adjustments.
type Clock interface {
	Now() (time.Time, error)
}

type systemClock struct{}

func (systemClock) Now() (time.Time, error) {
	return time.Now(), nil
}

// SystemClock returns the process clock.
func SystemClock() Clock {
	return systemClock{}
}

type SessionState int

const (
	StateUninitialized SessionState = iota
	StateInitializing
	StateInitialized
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateInitialized:
		return "initialized"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// SessionSnapshot is a consistent copy of the session context.
type SessionSnapshot struct {
	SessionID             string
	SessionNumber         int
	Initialized           bool
	ServerTimestampOffset int64
	InitInstant           time.Time
	State                 SessionState
}

type sessionContext struct {
	mu          sync.RWMutex
	clock       Clock
	id          string
	number      int
	initialized bool
	offset      int64
	initInstant time.Time
	state       SessionState
}

func newSessionID() string {
	return uuid.NewString()
}

func newSessionContext(clock Clock) *sessionContext {
	return &sessionContext{
		clock: clock,
		id:    newSessionID(),
		state: StateUninitialized,
	}
}

func (s *sessionContext) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateInitializing
}

// fail ends a handshake without touching committed fields. A client that
// was initialized before keeps its previous session.
func (s *sessionContext) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		s.state = StateInitialized
		return
	}
	s.state = StateFailed
}

func (s *sessionContext) commit(number int, offset int64, instant time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.number = number
	s.offset = offset
	s.initInstant = instant
	s.initialized = true
	s.state = StateInitialized
}

func (s *sessionContext) snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionSnapshot{
		SessionID:             s.id,
		SessionNumber:         s.number,
		Initialized:           s.initialized,
		ServerTimestampOffset: s.offset,
		InitInstant:           s.initInstant,
		State:                 s.state,
	}
}

func (s *sessionContext) sample() (time.Time, error) {
	now, err := s.clock.Now()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrClockUnavailable, err)
	}
	return now, nil
}

// elapsedSince returns whole seconds between instant and now, never negative.
func (s *sessionContext) elapsedSince(instant time.Time) (int64, error) {
	now, err := s.sample()
	if err != nil {
		return 0, err
	}
	d := now.Sub(instant)
	if d < 0 {
		return 0, nil
	}
	return int64(d / time.Second), nil
}

func (s *sessionContext) elapsedSeconds() (int64, error) {
	snap := s.snapshot()
	if !snap.Initialized {
		return 0, ErrNotInitialized
	}
	return s.elapsedSince(snap.InitInstant)
}
