package notifications

import (
	"context"
	"time"

	"github.com/geocoder89/staroracle/internal/breaker"
)

// ErrCircuitOpen is returned without calling the mailer while it is failing.
var ErrCircuitOpen = breaker.ErrOpen

type ProtectedNotifierConfig struct {
	Timeout          time.Duration // per send
	FailureThreshold int
	Cooldown         time.Duration
	OnStateChange    func(name string, from, to breaker.State)
}

// ProtectedNotifier bounds each send with a timeout and stops calling a
// mailer that keeps failing until its cooldown passes.
type ProtectedNotifier struct {
	inner Notifier
	cb    *breaker.Breaker
}

func NewProtectedNotifier(inner Notifier, cfg ProtectedNotifierConfig) *ProtectedNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}

	return &ProtectedNotifier{
		inner: inner,
		cb: breaker.New(breaker.Config{
			Name:             "notifier",
			Timeout:          cfg.Timeout,
			FailureThreshold: cfg.FailureThreshold,
			Cooldown:         cfg.Cooldown,
			OnStateChange:    cfg.OnStateChange,
		}),
	}
}

func (n *ProtectedNotifier) SendVerification(ctx context.Context, input SendVerificationInput) error {
	return n.cb.Do(ctx, func(ctx context.Context) error {
		return n.inner.SendVerification(ctx, input)
	})
}

func (n *ProtectedNotifier) State() string {
	return string(n.cb.State())
}
