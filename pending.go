package gameanalytics

import "context"

// Pending is the settled-later result of a send launched with Client.Go.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func settledPending(err error) *Pending {
	p := newPending()
	p.settle(err)
	return p
}

func (p *Pending) settle(err error) {
	p.err = err
	close(p.done)
}

// Done is closed once the send has finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the send finishes or ctx is done.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the send result, or nil while it is still running.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}
