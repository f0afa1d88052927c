package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/youcodecowboy/conka-sub004/internal/domain"
	"github.com/youcodecowboy/conka-sub004/internal/infrastructure/cache"
	"github.com/youcodecowboy/conka-sub004/internal/ports"
)

// ErrUnknownPlan is returned for a change-plan request naming a plan
// outside the fixed tier table.
var ErrUnknownPlan = errors.New("unknown plan")

const paymentMethodsCacheTTL = 5 * time.Minute

// SystemOutcome is one backing system's result for a command.
type SystemOutcome struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// CommandDetails exposes both systems' individual outcomes for diagnosis.
// The top-level success flag tracks Shopify alone.
type CommandDetails struct {
	Shopify *SystemOutcome `json:"shopify,omitempty"`
	Loop    *SystemOutcome `json:"loop,omitempty"`
}

// CommandResult is the caller-visible outcome of a subscription command.
type CommandResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Details CommandDetails `json:"details"`
}

// EmailResult is the payment-method update contract: message is always a
// user-safe string, never raw provider error text.
type EmailResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PaymentMethodView is a payment method with its derived status attached.
type PaymentMethodView struct {
	domain.PaymentMethod
	Status domain.PaymentMethodStatus `json:"status"`
}

// SubscriptionService routes every subscription mutation to the two backing
// systems. Shopify is authoritative: its result alone determines the
// reported outcome. Loop is an operational mirror written best-effort; its
// failure must never block a customer from controlling a subscription they
// are entitled to.
type SubscriptionService struct {
	shopify ports.CustomerAccountClient
	loop    ports.SubscriptionMirror
	audit   ports.CommandAuditLog
	cache   *cache.Cache
	logger  zerolog.Logger
}

// NewSubscriptionService creates the command router. audit and cache may be
// nil when the backing infrastructure is not configured.
func NewSubscriptionService(
	shopify ports.CustomerAccountClient,
	loop ports.SubscriptionMirror,
	audit ports.CommandAuditLog,
	pmCache *cache.Cache,
	logger zerolog.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		shopify: shopify,
		loop:    loop,
		audit:   audit,
		cache:   pmCache,
		logger:  logger,
	}
}

// Pause pauses a contract in both systems.
func (s *SubscriptionService) Pause(ctx context.Context, accessToken, subscriptionID string) (*CommandResult, error) {
	return s.dualWrite(ctx, "pause", accessToken, subscriptionID,
		func(id string) ports.MutationOutcome {
			return s.shopify.PauseContract(ctx, accessToken, id)
		},
		func(mirrorID string) error {
			return s.loop.PauseSubscription(ctx, mirrorID)
		})
}

// Resume reactivates a paused contract in both systems. Shopify calls this
// mutation "activate".
func (s *SubscriptionService) Resume(ctx context.Context, accessToken, subscriptionID string) (*CommandResult, error) {
	return s.dualWrite(ctx, "resume", accessToken, subscriptionID,
		func(id string) ports.MutationOutcome {
			return s.shopify.ActivateContract(ctx, accessToken, id)
		},
		func(mirrorID string) error {
			return s.loop.ReactivateSubscription(ctx, mirrorID)
		})
}

// Cancel cancels a contract in both systems, with an optional reason code
// and free-text comment.
func (s *SubscriptionService) Cancel(ctx context.Context, accessToken, subscriptionID, reason, comment string) (*CommandResult, error) {
	return s.dualWrite(ctx, "cancel", accessToken, subscriptionID,
		func(id string) ports.MutationOutcome {
			return s.shopify.CancelContract(ctx, accessToken, id, reason, comment)
		},
		func(mirrorID string) error {
			return s.loop.CancelSubscription(ctx, mirrorID, reason, comment)
		})
}

// dualWrite runs the two-system protocol: authoritative write first, then
// the best-effort mirror write regardless of the first result. There is no
// compensation; a succeeded-then-failed pair leaves the systems
// inconsistent until the next successful mirror write, which is accepted.
func (s *SubscriptionService) dualWrite(
	ctx context.Context,
	action, accessToken, subscriptionID string,
	authoritative func(id string) ports.MutationOutcome,
	mirror func(mirrorID string) error,
) (*CommandResult, error) {
	if accessToken == "" {
		return nil, ErrNotAuthenticated
	}

	mirrorID := domain.ToMirrorID(subscriptionID)

	outcome := authoritative(subscriptionID)
	shopifyOutcome := &SystemOutcome{Success: outcome.Succeeded()}
	if !outcome.Succeeded() {
		if outcome.Err != nil {
			shopifyOutcome.Error = outcome.Err.Error()
		} else {
			shopifyOutcome.Error = outcome.FailureMessage()
		}
		s.logger.Error().
			Str("action", action).
			Str("subscriptionId", subscriptionID).
			Str("mirrorId", mirrorID).
			Str("error", shopifyOutcome.Error).
			Msg("Authoritative write failed")
	}

	// Mirror write happens even when the authoritative write failed, for
	// eventual consistency; its outcome never changes the reported result.
	loopOutcome := &SystemOutcome{Success: true}
	if err := mirror(mirrorID); err != nil {
		loopOutcome.Success = false
		loopOutcome.Error = err.Error()
		s.logger.Warn().
			Err(err).
			Str("action", action).
			Str("subscriptionId", subscriptionID).
			Str("mirrorId", mirrorID).
			Msg("Mirror write failed, continuing")
	}

	s.recordAudit(ctx, action, subscriptionID, mirrorID, shopifyOutcome, loopOutcome)

	result := &CommandResult{
		Success: shopifyOutcome.Success,
		Details: CommandDetails{Shopify: shopifyOutcome, Loop: loopOutcome},
	}
	if !result.Success {
		if msg := outcome.FailureMessage(); msg != "" {
			result.Message = msg
		} else {
			result.Message = "Unable to update your subscription right now. Please try again."
		}
	}
	return result, nil
}

// Skip skips the next delivery. Shopify's customer API has no equivalent
// mutation, so this is a mirror-only operation.
func (s *SubscriptionService) Skip(ctx context.Context, accessToken, subscriptionID string) (*CommandResult, error) {
	return s.mirrorOnly(ctx, "skip", accessToken, subscriptionID, func(mirrorID string) error {
		return s.loop.SkipNextOrder(ctx, mirrorID)
	})
}

// ChangePlan maps a plan tier onto its billing interval and issues a single
// frequency change to the mirror system.
func (s *SubscriptionService) ChangePlan(ctx context.Context, accessToken, subscriptionID, plan string) (*CommandResult, error) {
	interval, ok := domain.PlanInterval(plan)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}
	return s.mirrorOnly(ctx, "change-plan", accessToken, subscriptionID, func(mirrorID string) error {
		return s.loop.ChangeFrequency(ctx, mirrorID, interval)
	})
}

func (s *SubscriptionService) mirrorOnly(
	ctx context.Context,
	action, accessToken, subscriptionID string,
	mirror func(mirrorID string) error,
) (*CommandResult, error) {
	if accessToken == "" {
		return nil, ErrNotAuthenticated
	}

	mirrorID := domain.ToMirrorID(subscriptionID)
	loopOutcome := &SystemOutcome{Success: true}
	if err := mirror(mirrorID); err != nil {
		loopOutcome.Success = false
		loopOutcome.Error = err.Error()
		s.logger.Error().
			Err(err).
			Str("action", action).
			Str("subscriptionId", subscriptionID).
			Str("mirrorId", mirrorID).
			Msg("Mirror operation failed")
	}

	s.recordAudit(ctx, action, subscriptionID, mirrorID, nil, loopOutcome)

	result := &CommandResult{
		Success: loopOutcome.Success,
		Details: CommandDetails{Loop: loopOutcome},
	}
	if !result.Success {
		result.Message = "Unable to update your subscription right now. Please try again."
	}
	return result, nil
}

// ListContracts returns the customer's contracts from the authoritative
// system.
func (s *SubscriptionService) ListContracts(ctx context.Context, accessToken string) ([]domain.SubscriptionContract, error) {
	if accessToken == "" {
		return nil, ErrNotAuthenticated
	}
	contracts, err := s.shopify.ListSubscriptionContracts(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return contracts, nil
}

// ListPaymentMethods returns the customer's cards with derived status,
// sorted safe first, read through the cache when one is configured.
func (s *SubscriptionService) ListPaymentMethods(ctx context.Context, accessToken, customerEmail string) ([]PaymentMethodView, error) {
	if accessToken == "" {
		return nil, ErrNotAuthenticated
	}

	cacheKey := "payment-methods:" + customerEmail
	var methods []domain.PaymentMethod
	if !s.cache.Get(ctx, cacheKey, &methods) {
		fetched, err := s.loop.ListPaymentMethods(ctx, customerEmail)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch payment methods: %w", err)
		}
		methods = fetched
		s.cache.Set(ctx, cacheKey, methods, paymentMethodsCacheTTL)
	}

	now := time.Now()
	domain.SortPaymentMethods(methods, now)

	views := make([]PaymentMethodView, 0, len(methods))
	for _, pm := range methods {
		views = append(views, PaymentMethodView{PaymentMethod: pm, Status: pm.StatusAt(now)})
	}
	return views, nil
}

// SendPaymentMethodEmail triggers the mirror system's secure update link
// email. Provider failures collapse to a generic contact-support message;
// raw provider text never reaches the caller.
func (s *SubscriptionService) SendPaymentMethodEmail(ctx context.Context, accessToken string, paymentMethodID int) (*EmailResult, error) {
	if accessToken == "" {
		return nil, ErrNotAuthenticated
	}

	if err := s.loop.SendPaymentMethodEmail(ctx, paymentMethodID); err != nil {
		s.logger.Error().
			Err(err).
			Int("paymentMethodId", paymentMethodID).
			Msg("Failed to send payment update email")
		return &EmailResult{
			Success: false,
			Message: "We couldn't send the update link right now. Please contact support.",
		}, nil
	}

	return &EmailResult{
		Success: true,
		Message: "We've emailed you a secure link to update your payment method.",
	}, nil
}

// RecentCommands returns the audit trail for one contract, or nothing when
// no audit store is configured.
func (s *SubscriptionService) RecentCommands(ctx context.Context, subscriptionID string, limit int) ([]*domain.CommandAudit, error) {
	if s.audit == nil {
		return nil, nil
	}
	return s.audit.RecentBySubscription(ctx, subscriptionID, limit)
}

func (s *SubscriptionService) recordAudit(ctx context.Context, action, subscriptionID, mirrorID string, shopify, loop *SystemOutcome) {
	if s.audit == nil {
		return
	}

	audit := &domain.CommandAudit{
		ID:             uuid.NewString(),
		Action:         action,
		SubscriptionID: subscriptionID,
		MirrorID:       mirrorID,
		CreatedAt:      time.Now(),
	}
	if shopify != nil {
		audit.ShopifySuccess = shopify.Success
		audit.ShopifyError = shopify.Error
	}
	if loop != nil {
		audit.LoopSuccess = loop.Success
		audit.LoopError = loop.Error
	}

	if err := s.audit.Record(ctx, audit); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("Failed to record command audit")
	}
}
