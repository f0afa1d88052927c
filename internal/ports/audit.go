package ports

import (
	"context"

	"github.com/youcodecowboy/conka-sub004/internal/domain"
)

// CommandAuditLog persists the per-system outcome of each subscription
// mutation so an operator can find contracts the mirror missed. Recording
// is best-effort; implementations must not block command completion.
type CommandAuditLog interface {
	Record(ctx context.Context, audit *domain.CommandAudit) error
	RecentBySubscription(ctx context.Context, subscriptionID string, limit int) ([]*domain.CommandAudit, error)
}
