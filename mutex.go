package gameanalytics

import "context"

// handshakeMutex provides mutual exclusion for Init. Waiting for the lock
// gives up when ctx is done.
type handshakeMutex struct {
	sem chan struct{}
}

func newHandshakeMutex() *handshakeMutex {
	return &handshakeMutex{sem: make(chan struct{}, 1)}
}

// RunAtomic executes a task with exclusive lock
func (m *handshakeMutex) RunAtomic(ctx context.Context, task func() error) error {
	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-m.sem }()
	return task()
}

// Busy reports whether a task currently holds the lock.
func (m *handshakeMutex) Busy() bool {
	return len(m.sem) > 0
}
