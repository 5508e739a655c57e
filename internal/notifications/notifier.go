package notifications

import "context"

type SendVerificationInput struct {
	Email            string
	Name             string
	VerificationLink string
}

type Notifier interface {
	SendVerification(ctx context.Context, input SendVerificationInput) error
}
