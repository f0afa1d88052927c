package domain

import (
	"strings"
	"time"
)

// SubscriptionStatus is the normalized status vocabulary. Shopify reports
// upper-case enum values, Loop mixed-case strings; both are folded onto
// these at the adapter boundary.
type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusPaused    SubscriptionStatus = "paused"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusExpired   SubscriptionStatus = "expired"
)

// NormalizeStatus lower-cases a vendor status and maps vocabulary
// differences (Shopify "CANCELLED", Loop "canceled") onto one spelling.
// Unknown values pass through lower-cased.
func NormalizeStatus(raw string) SubscriptionStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "active":
		return StatusActive
	case "paused":
		return StatusPaused
	case "cancelled", "canceled":
		return StatusCancelled
	case "expired":
		return StatusExpired
	default:
		return SubscriptionStatus(s)
	}
}

// DeliveryInterval is a billing/delivery cadence.
type DeliveryInterval struct {
	Value int    `json:"value"`
	Unit  string `json:"unit"`
}

// SubscriptionLineItem is one product line on a contract.
type SubscriptionLineItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// SubscriptionContract is the typed view of a contract, keyed by the
// canonical Shopify GID. Contracts are never deleted, only transitioned to
// cancelled or expired.
type SubscriptionContract struct {
	ID               string                 `json:"id"`
	Status           SubscriptionStatus     `json:"status"`
	NextBillingDate  *time.Time             `json:"nextBillingDate,omitempty"`
	DeliveryInterval DeliveryInterval       `json:"deliveryInterval"`
	LineItems        []SubscriptionLineItem `json:"lineItems"`
	CurrentPrice     string                 `json:"currentPrice"`
}

// Plan identifiers accepted by the change-plan action.
const (
	PlanStarter = "starter"
	PlanPro     = "pro"
	PlanMax     = "max"
)

// DeliveryPlans maps the coarse plan tiers sold on the site to the concrete
// interval the frequency-change call needs. The table is fixed: plans are a
// marketing construct, not provider state.
var DeliveryPlans = map[string]DeliveryInterval{
	PlanStarter: {Value: 1, Unit: "MONTH"},
	PlanPro:     {Value: 2, Unit: "WEEK"},
	PlanMax:     {Value: 1, Unit: "WEEK"},
}

// PlanInterval resolves a plan identifier, reporting whether it is known.
func PlanInterval(plan string) (DeliveryInterval, bool) {
	interval, ok := DeliveryPlans[strings.ToLower(strings.TrimSpace(plan))]
	return interval, ok
}

// CommandAudit records the outcome of one subscription mutation across both
// systems, for post-hoc reconciliation of failed mirror writes.
type CommandAudit struct {
	ID             string    `json:"id"`
	Action         string    `json:"action"`
	SubscriptionID string    `json:"subscription_id"`
	MirrorID       string    `json:"mirror_id"`
	ShopifySuccess bool      `json:"shopify_success"`
	ShopifyError   string    `json:"shopify_error,omitempty"`
	LoopSuccess    bool      `json:"loop_success"`
	LoopError      string    `json:"loop_error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
