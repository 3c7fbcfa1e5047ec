package notify

import (
	"context"
	"log/slog"

	"agristore/internal/app/policies"
)

// LogNotifier writes notifications to the application log. It stands in for
// an email/SMS channel in dev and tests.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, event string, payload any) error {
	if n.Logger != nil {
		n.Logger.Info("notification", "event", event, "payload", payload)
	}
	return nil
}

var _ policies.Notifier = LogNotifier{}
