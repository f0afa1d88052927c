package entity

import (
	"time"

	"github.com/youcodecowboy/conka-sub004/internal/domain"
)

// CommandAuditDoc is the Mongo document for one subscription command.
type CommandAuditDoc struct {
	ID             string    `bson:"_id"`
	Action         string    `bson:"action"`
	SubscriptionID string    `bson:"subscription_id"`
	MirrorID       string    `bson:"mirror_id"`
	ShopifySuccess bool      `bson:"shopify_success"`
	ShopifyError   string    `bson:"shopify_error,omitempty"`
	LoopSuccess    bool      `bson:"loop_success"`
	LoopError      string    `bson:"loop_error,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
}

// CommandAuditDocFromDomain maps a domain audit record to its document.
func CommandAuditDocFromDomain(audit *domain.CommandAudit) *CommandAuditDoc {
	return &CommandAuditDoc{
		ID:             audit.ID,
		Action:         audit.Action,
		SubscriptionID: audit.SubscriptionID,
		MirrorID:       audit.MirrorID,
		ShopifySuccess: audit.ShopifySuccess,
		ShopifyError:   audit.ShopifyError,
		LoopSuccess:    audit.LoopSuccess,
		LoopError:      audit.LoopError,
		CreatedAt:      audit.CreatedAt,
	}
}

// ToDomain maps a document back to the domain record.
func (d *CommandAuditDoc) ToDomain() *domain.CommandAudit {
	return &domain.CommandAudit{
		ID:             d.ID,
		Action:         d.Action,
		SubscriptionID: d.SubscriptionID,
		MirrorID:       d.MirrorID,
		ShopifySuccess: d.ShopifySuccess,
		ShopifyError:   d.ShopifyError,
		LoopSuccess:    d.LoopSuccess,
		LoopError:      d.LoopError,
		CreatedAt:      d.CreatedAt,
	}
}
