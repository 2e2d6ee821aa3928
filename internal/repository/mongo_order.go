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

// MongoOrderRepository implements domain.OrderRepository
type MongoOrderRepository struct {
	collection *mongo.Collection
}

// NewMongoOrderRepository creates a new order repository
// Note: No index creation to ensure zero-impact deployment on existing collections
func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	coll := db.Collection("orders")
	return &MongoOrderRepository{
		collection: coll,
	}
}

func (r *MongoOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	objID := primitive.NewObjectID()
	order.ID = objID.Hex()

	doc := bson.M{
		"_id":                 objID,
		"cart_session_id":     order.CartSessionID,
		"user_id":             order.UserID,
		"email":               order.Email,
		"items":               mapOrderItemsToBson(order.Items),
		"amount_cents":        order.AmountCents,
		"mode":                order.Mode,
		"status":              order.Status,
		"provider_session_id": order.ProviderSessionID,
		"created_at":          order.CreatedAt,
		"updated_at":          order.UpdatedAt,
	}

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *MongoOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid order id: %w", err)
	}

	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return mapBsonToOrder(raw), nil
}

// GetByProviderSessionID finds an order by its payment-provider session ID
func (r *MongoOrderRepository) GetByProviderSessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"provider_session_id": sessionID}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order by session: %w", err)
	}
	return mapBsonToOrder(raw), nil
}

// GetPendingOlderThan lists pending orders created before the cutoff,
// used by the expiry maintenance command
func (r *MongoOrderRepository) GetPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	filter := bson.M{
		"status":     domain.OrderStatusPending,
		"created_at": bson.M{"$lt": cutoff},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		orders = append(orders, mapBsonToOrder(raw))
	}
	return orders, nil
}

func (r *MongoOrderRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid order id: %w", err)
	}

	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Update updates the mutable order fields
func (r *MongoOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	objID, err := primitive.ObjectIDFromHex(order.ID)
	if err != nil {
		return fmt.Errorf("invalid order id: %w", err)
	}

	order.UpdatedAt = time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"status":              order.Status,
			"provider_session_id": order.ProviderSessionID,
			"updated_at":          order.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapOrderItemsToBson(items []domain.OrderItem) []bson.M {
	docs := make([]bson.M, 0, len(items))
	for _, item := range items {
		doc := bson.M{
			"line_item_id": item.LineItemID,
			"product_id":   item.ProductID,
			"name":         item.Name,
			"description":  item.Description,
			"amount_cents": item.AmountCents,
			"interval":     string(item.Interval),
			"is_gift":      item.IsGift,
		}
		if item.GiftRecipient != nil {
			doc["gift_recipient"] = bson.M{
				"name":    item.GiftRecipient.Name,
				"email":   item.GiftRecipient.Email,
				"message": item.GiftRecipient.Message,
			}
		}
		docs = append(docs, doc)
	}
	return docs
}

func mapBsonToOrder(raw bson.M) *domain.Order {
	order := &domain.Order{}

	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		order.ID = oid.Hex()
	}
	if sessionID, ok := raw["cart_session_id"].(string); ok {
		order.CartSessionID = sessionID
	}
	if userID, ok := raw["user_id"].(string); ok {
		order.UserID = userID
	}
	if email, ok := raw["email"].(string); ok {
		order.Email = email
	}
	if rawItems, ok := raw["items"].(primitive.A); ok {
		for _, rawItem := range rawItems {
			if doc, ok := rawItem.(bson.M); ok {
				order.Items = append(order.Items, mapBsonToOrderItem(doc))
			}
		}
	}
	if amount, ok := raw["amount_cents"].(int64); ok {
		order.AmountCents = amount
	} else if amount, ok := raw["amount_cents"].(int32); ok {
		order.AmountCents = int64(amount)
	}
	if mode, ok := raw["mode"].(string); ok {
		order.Mode = mode
	}
	if status, ok := raw["status"].(string); ok {
		order.Status = status
	}
	if sessionID, ok := raw["provider_session_id"].(string); ok {
		order.ProviderSessionID = sessionID
	}
	if created, ok := raw["created_at"].(primitive.DateTime); ok {
		order.CreatedAt = created.Time()
	}
	if updated, ok := raw["updated_at"].(primitive.DateTime); ok {
		order.UpdatedAt = updated.Time()
	}

	return order
}

func mapBsonToOrderItem(raw bson.M) domain.OrderItem {
	item := domain.OrderItem{}

	if lineItemID, ok := raw["line_item_id"].(string); ok {
		item.LineItemID = lineItemID
	}
	if productID, ok := raw["product_id"].(string); ok {
		item.ProductID = productID
	}
	if name, ok := raw["name"].(string); ok {
		item.Name = name
	}
	if description, ok := raw["description"].(string); ok {
		item.Description = description
	}
	if amount, ok := raw["amount_cents"].(int64); ok {
		item.AmountCents = amount
	} else if amount, ok := raw["amount_cents"].(int32); ok {
		item.AmountCents = int64(amount)
	}
	if interval, ok := raw["interval"].(string); ok {
		item.Interval = domain.Interval(interval)
	}
	if isGift, ok := raw["is_gift"].(bool); ok {
		item.IsGift = isGift
	}
	if rawRecipient, ok := raw["gift_recipient"].(bson.M); ok {
		recipient := &domain.GiftRecipient{}
		if name, ok := rawRecipient["name"].(string); ok {
			recipient.Name = name
		}
		if email, ok := rawRecipient["email"].(string); ok {
			recipient.Email = email
		}
		if message, ok := rawRecipient["message"].(string); ok {
			recipient.Message = message
		}
		item.GiftRecipient = recipient
	}

	return item
}
