package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes the verification link to the log instead of sending mail.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendVerification(ctx context.Context, in SendVerificationInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.logger.InfoContext(ctx, "notification.email_verification",
		"email", in.Email,
		"name", in.Name,
		"link", in.VerificationLink,
	)
	return nil
}
