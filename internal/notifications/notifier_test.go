package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type flakyNotifier struct {
	err   error
	calls int
}

func (f *flakyNotifier) SendVerification(context.Context, SendVerificationInput) error {
	f.calls++
	return f.err
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("smtp down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Minute})

	ctx := context.Background()
	in := SendVerificationInput{Email: "a@example.com", VerificationLink: "http://x/verify?token=t"}

	assert.Error(t, n.SendVerification(ctx, in))
	assert.Error(t, n.SendVerification(ctx, in))
	assert.Equal(t, "open", n.State())

	assert.ErrorIs(t, n.SendVerification(ctx, in), ErrCircuitOpen)
	assert.Equal(t, 2, inner.calls)
}

func TestProtectedNotifier_SendsBoundedByTimeout(t *testing.T) {
	var deadline time.Time
	inner := notifierFunc(func(ctx context.Context, _ SendVerificationInput) error {
		deadline, _ = ctx.Deadline()
		return nil
	})
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{Timeout: time.Second})

	assert.NoError(t, n.SendVerification(context.Background(), SendVerificationInput{}))
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
	assert.Equal(t, "closed", n.State())
}

type notifierFunc func(ctx context.Context, in SendVerificationInput) error

func (f notifierFunc) SendVerification(ctx context.Context, in SendVerificationInput) error {
	return f(ctx, in)
}

func TestLogNotifier_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, NewLogNotifier(nil).SendVerification(ctx, SendVerificationInput{}), context.Canceled)
}
