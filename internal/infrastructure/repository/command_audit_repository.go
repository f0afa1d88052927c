package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/youcodecowboy/conka-sub004/internal/domain"
	"github.com/youcodecowboy/conka-sub004/internal/infrastructure/repository/entity"
	"github.com/youcodecowboy/conka-sub004/internal/ports"
)

// MongoCommandAuditRepository persists subscription command outcomes so an
// operator can reconcile contracts the mirror write missed.
type MongoCommandAuditRepository struct {
	collection *mongo.Collection
}

// NewMongoCommandAuditRepository creates the audit repository.
func NewMongoCommandAuditRepository(db *mongo.Database) ports.CommandAuditLog {
	return &MongoCommandAuditRepository{
		collection: db.Collection("subscription_commands"),
	}
}

// Record inserts one audit document.
func (r *MongoCommandAuditRepository) Record(ctx context.Context, audit *domain.CommandAudit) error {
	doc := entity.CommandAuditDocFromDomain(audit)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to record command audit: %w", err)
	}
	return nil
}

// RecentBySubscription returns the newest audit records for one contract.
func (r *MongoCommandAuditRepository) RecentBySubscription(ctx context.Context, subscriptionID string, limit int) ([]*domain.CommandAudit, error) {
	if limit <= 0 {
		limit = 20
	}

	filter := bson.M{"subscription_id": subscriptionID}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query command audits: %w", err)
	}
	defer cursor.Close(ctx)

	var audits []*domain.CommandAudit
	for cursor.Next(ctx) {
		var doc entity.CommandAuditDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode command audit: %w", err)
		}
		audits = append(audits, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return audits, nil
}
