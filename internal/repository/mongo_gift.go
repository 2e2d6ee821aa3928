package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/stridelab/stridefit/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoGiftRepository implements domain.GiftSubscriptionRepository
type MongoGiftRepository struct {
	collection *mongo.Collection
}

// NewMongoGiftRepository creates a new gift subscription repository
// Note: No index creation to ensure zero-impact deployment on existing collections
func NewMongoGiftRepository(db *mongo.Database) *MongoGiftRepository {
	coll := db.Collection("gift_subscriptions")
	return &MongoGiftRepository{
		collection: coll,
	}
}

func (r *MongoGiftRepository) Create(ctx context.Context, gift *domain.GiftSubscription) error {
	now := time.Now().UTC()
	gift.CreatedAt = now
	gift.UpdatedAt = now

	objID := primitive.NewObjectID()
	gift.ID = objID.Hex()

	doc := bson.M{
		"_id":        objID,
		"order_id":   gift.OrderID,
		"product_id": gift.ProductID,
		"recipient": bson.M{
			"name":    gift.Recipient.Name,
			"email":   gift.Recipient.Email,
			"message": gift.Recipient.Message,
		},
		"redeem_code":    gift.RedeemCode,
		"status":         gift.Status,
		"months_granted": gift.MonthsGranted,
		"created_at":     gift.CreatedAt,
		"updated_at":     gift.UpdatedAt,
	}

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create gift subscription: %w", err)
	}
	return nil
}

func (r *MongoGiftRepository) GetByID(ctx context.Context, id string) (*domain.GiftSubscription, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid gift id: %w", err)
	}

	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get gift subscription: %w", err)
	}
	return mapBsonToGift(raw), nil
}

func (r *MongoGiftRepository) GetByRedeemCode(ctx context.Context, code string) (*domain.GiftSubscription, error) {
	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"redeem_code": code}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get gift by redeem code: %w", err)
	}
	return mapBsonToGift(raw), nil
}

func (r *MongoGiftRepository) GetByOrderID(ctx context.Context, orderID string) ([]*domain.GiftSubscription, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"order_id": orderID})
	if err != nil {
		return nil, fmt.Errorf("failed to list gifts by order: %w", err)
	}
	defer cursor.Close(ctx)

	var gifts []*domain.GiftSubscription
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		gifts = append(gifts, mapBsonToGift(raw))
	}
	return gifts, nil
}

func (r *MongoGiftRepository) Update(ctx context.Context, gift *domain.GiftSubscription) error {
	objID, err := primitive.ObjectIDFromHex(gift.ID)
	if err != nil {
		return fmt.Errorf("invalid gift id: %w", err)
	}

	gift.UpdatedAt = time.Now().UTC()

	set := bson.M{
		"status":     gift.Status,
		"updated_at": gift.UpdatedAt,
	}
	if gift.RedeemedBy != "" {
		set["redeemed_by"] = gift.RedeemedBy
	}
	if gift.RedeemedAt != nil {
		set["redeemed_at"] = *gift.RedeemedAt
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update gift subscription: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapBsonToGift(raw bson.M) *domain.GiftSubscription {
	gift := &domain.GiftSubscription{}

	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		gift.ID = oid.Hex()
	}
	if orderID, ok := raw["order_id"].(string); ok {
		gift.OrderID = orderID
	}
	if productID, ok := raw["product_id"].(string); ok {
		gift.ProductID = productID
	}
	if rawRecipient, ok := raw["recipient"].(bson.M); ok {
		if name, ok := rawRecipient["name"].(string); ok {
			gift.Recipient.Name = name
		}
		if email, ok := rawRecipient["email"].(string); ok {
			gift.Recipient.Email = email
		}
		if message, ok := rawRecipient["message"].(string); ok {
			gift.Recipient.Message = message
		}
	}
	if code, ok := raw["redeem_code"].(string); ok {
		gift.RedeemCode = code
	}
	if status, ok := raw["status"].(string); ok {
		gift.Status = status
	}
	if months, ok := raw["months_granted"].(int32); ok {
		gift.MonthsGranted = int(months)
	} else if months, ok := raw["months_granted"].(int64); ok {
		gift.MonthsGranted = int(months)
	}
	if redeemedBy, ok := raw["redeemed_by"].(string); ok {
		gift.RedeemedBy = redeemedBy
	}
	if redeemedAt, ok := raw["redeemed_at"].(primitive.DateTime); ok {
		t := redeemedAt.Time()
		gift.RedeemedAt = &t
	}
	if created, ok := raw["created_at"].(primitive.DateTime); ok {
		gift.CreatedAt = created.Time()
	}
	if updated, ok := raw["updated_at"].(primitive.DateTime); ok {
		gift.UpdatedAt = updated.Time()
	}

	return gift
}
