package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/stridelab/stridefit/internal/config"
	"github.com/stridelab/stridefit/internal/domain"
	"github.com/stridelab/stridefit/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		log.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB.Database)
	repo := repository.NewMongoProductRepository(db)

	// Subscription prices are the canonical monthly rate in cents;
	// yearly pricing is derived at read time.
	products := []domain.Product{
		{
			ID:             "full-coaching",
			Name:           "Full Coaching",
			Description:    "Personalized training plan, nutrition guidance and weekly check-ins with your coach.",
			Kind:           domain.ProductKindSubscription,
			PriceCents:     14900,
			DurationMonths: 1,
			IsActive:       true,
		},
		{
			ID:             "training-plan",
			Name:           "Training Plan",
			Description:    "Adaptive running plan that adjusts to your progress every week.",
			Kind:           domain.ProductKindSubscription,
			PriceCents:     1999,
			DurationMonths: 1,
			IsActive:       true,
		},
		{
			ID:          "race-day-kit",
			Name:        "Race Day Kit",
			Description: "Digital race-prep bundle: pacing charts, fueling plan and taper checklist.",
			Kind:        domain.ProductKindOneTime,
			PriceCents:  9900,
			IsActive:    true,
		},
		{
			ID:          "form-analysis",
			Name:        "Running Form Analysis",
			Description: "One-time video analysis of your running form with corrective drills.",
			Kind:        domain.ProductKindOneTime,
			PriceCents:  4900,
			IsActive:    true,
		},
	}

	for _, p := range products {
		if err := repo.Create(context.Background(), &p); err != nil {
			log.Printf("Error creating %s: %v\n", p.ID, err)
		} else {
			fmt.Printf("Created: %s (%s, %d cents)\n", p.ID, p.Kind, p.PriceCents)
		}
	}
	fmt.Println("Seeding Catalog Complete.")
}
