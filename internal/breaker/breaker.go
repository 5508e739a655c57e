// Package breaker is a consecutive-failure circuit breaker for calls to
// dependencies outside the process: the upstream feed and the mailer.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrOpen = errors.New("circuit breaker open")

type State string

const (
	Closed   State = "closed"
	Open     State = "open"
	HalfOpen State = "half_open"
)

type Config struct {
	Name string
	// per call; zero leaves the caller's deadline alone
	Timeout time.Duration
	// consecutive failures before opening
	FailureThreshold int
	// how long an open breaker rejects before allowing trial calls
	Cooldown         time.Duration
	HalfOpenMaxCalls int
	// OnStateChange runs outside the lock after every transition.
	OnStateChange func(name string, from, to State)
}

type Breaker struct {
	cfg Config

	mu               sync.Mutex
	state            State
	failures         int
	openedAt         time.Time
	halfOpenInFlight int

	now func() time.Time
}

func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &Breaker{cfg: cfg, state: Closed, now: time.Now}
}

// Do runs fn unless the breaker is open. A call whose caller gave up says
// nothing about the dependency: it neither resets nor adds to the failure
// count, and an abandoned half-open trial leaves the breaker open.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.acquire(); err != nil {
		return err
	}

	callCtx := ctx
	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}

	err := fn(callCtx)

	switch {
	case err == nil:
		b.release(succeeded)
	case ctx.Err() != nil:
		b.release(abandoned)
	default:
		b.release(failed)
	}
	return err
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) acquire() error {
	b.mu.Lock()

	from := b.state
	if b.state == Open {
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = HalfOpen
		b.halfOpenInFlight = 0
	}

	if b.state == HalfOpen {
		if b.halfOpenInFlight >= b.cfg.HalfOpenMaxCalls {
			b.mu.Unlock()
			return ErrOpen
		}
		b.halfOpenInFlight++
	}

	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
	return nil
}

type outcome int

const (
	succeeded outcome = iota
	failed
	abandoned
)

func (b *Breaker) release(o outcome) {
	b.mu.Lock()

	from := b.state
	if b.state == HalfOpen && b.halfOpenInFlight > 0 {
		b.halfOpenInFlight--
	}

	switch {
	case o == abandoned:
		if b.state == HalfOpen {
			// back to open on the original clock; the next caller retries
			b.state = Open
		}
	case o == succeeded:
		b.failures = 0
		b.state = Closed
	case b.state == HalfOpen:
		b.failures++
		b.trip()
	default:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.trip()
		}
	}

	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.cfg.Name, from, to)
	}
}
