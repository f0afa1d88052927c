package ports

import (
	"context"

	"github.com/youcodecowboy/conka-sub004/internal/domain"
)

// SubscriptionMirror is the best-effort system: Loop Subscriptions. It
// mirrors contract state and provides the operations Shopify's customer
// API does not expose (skip, frequency change, payment-link emails).
// Identifiers are in mirror form ("shopify-<n>" or Loop-native).
type SubscriptionMirror interface {
	PauseSubscription(ctx context.Context, mirrorID string) error
	ReactivateSubscription(ctx context.Context, mirrorID string) error
	CancelSubscription(ctx context.Context, mirrorID, reason, comment string) error

	// SkipNextOrder skips the next scheduled delivery, resolving the
	// upcoming order when the schedule endpoint is available and falling
	// back to a subscription-level skip when it is not.
	SkipNextOrder(ctx context.Context, mirrorID string) error

	ChangeFrequency(ctx context.Context, mirrorID string, interval domain.DeliveryInterval) error

	ListPaymentMethods(ctx context.Context, customerEmail string) ([]domain.PaymentMethod, error)

	// SendPaymentMethodEmail triggers the secure self-service update link.
	// The method itself is never mutated here.
	SendPaymentMethodEmail(ctx context.Context, paymentMethodID int) error
}
