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

// MongoProductRepository implements domain.ProductRepository
type MongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository creates a new product repository
// Note: No index creation to ensure zero-impact deployment on existing collections
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	coll := db.Collection("products")
	return &MongoProductRepository{
		collection: coll,
	}
}

func (r *MongoProductRepository) Create(ctx context.Context, product *domain.Product) error {
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	doc := bson.M{
		"_id":             product.ID, // Using string catalog key (e.g., "full-coaching")
		"name":            product.Name,
		"description":     product.Description,
		"kind":            product.Kind,
		"price_cents":     product.PriceCents,
		"duration_months": product.DurationMonths,
		"image_url":       product.ImageURL,
		"is_active":       product.IsActive,
		"created_at":      product.CreatedAt,
		"updated_at":      product.UpdatedAt,
	}

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return mapBsonToProduct(raw), nil
}

func (r *MongoProductRepository) GetActiveProducts(ctx context.Context) ([]*domain.Product, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"is_active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list active products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []*domain.Product
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		products = append(products, mapBsonToProduct(raw))
	}
	return products, nil
}

func (r *MongoProductRepository) Update(ctx context.Context, product *domain.Product) error {
	product.UpdatedAt = time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"name":            product.Name,
			"description":     product.Description,
			"kind":            product.Kind,
			"price_cents":     product.PriceCents,
			"duration_months": product.DurationMonths,
			"image_url":       product.ImageURL,
			"is_active":       product.IsActive,
			"updated_at":      product.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": product.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapBsonToProduct(raw bson.M) *domain.Product {
	product := &domain.Product{}

	if id, ok := raw["_id"].(string); ok {
		product.ID = id
	}
	if name, ok := raw["name"].(string); ok {
		product.Name = name
	}
	if desc, ok := raw["description"].(string); ok {
		product.Description = desc
	}
	if kind, ok := raw["kind"].(string); ok {
		product.Kind = kind
	}
	if price, ok := raw["price_cents"].(int64); ok {
		product.PriceCents = price
	} else if price, ok := raw["price_cents"].(int32); ok {
		product.PriceCents = int64(price)
	}
	if months, ok := raw["duration_months"].(int32); ok {
		product.DurationMonths = int(months)
	} else if months, ok := raw["duration_months"].(int64); ok {
		product.DurationMonths = int(months)
	}
	if imageURL, ok := raw["image_url"].(string); ok {
		product.ImageURL = imageURL
	}
	if active, ok := raw["is_active"].(bool); ok {
		product.IsActive = active
	}
	if created, ok := raw["created_at"].(primitive.DateTime); ok {
		product.CreatedAt = created.Time()
	}
	if updated, ok := raw["updated_at"].(primitive.DateTime); ok {
		product.UpdatedAt = updated.Time()
	}

	return product
}
