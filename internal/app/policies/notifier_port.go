package policies

import "context"

// Notifier delivers fire-and-forget notifications. Failures are logged by
// callers and never block or roll back a state transition.
type Notifier interface {
	Notify(ctx context.Context, event string, payload any) error
}
