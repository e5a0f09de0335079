package ports

import (
	"context"

	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
)

// Notifier delivers a notification to a single recipient. Failures are
// logged and swallowed by callers; delivery is best-effort and never fails
// a core transition.
type Notifier interface {
	Send(ctx context.Context, n models.Notification) error
}
