package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/stridelab/stridefit/internal/domain"
	"github.com/stridelab/stridefit/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// Marks stale pending orders as expired. Webhooks normally handle this
// via checkout.session.expired; the script sweeps up orders whose
// webhook never arrived. Carts are left alone so customers can retry.
func main() {
	mongoURI := flag.String("mongo", "mongodb://localhost:27017", "MongoDB connection URI")
	dbName := flag.String("db", "stridefit", "Database name")
	maxAge := flag.Duration("max-age", 24*time.Hour, "Pending orders older than this are expired")
	workers := flag.Int("workers", 4, "Concurrent update workers")
	dryRun := flag.Bool("dry-run", false, "Show what would be done without making changes")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	repo := repository.NewMongoOrderRepository(client.Database(*dbName))

	cutoff := time.Now().UTC().Add(-*maxAge)
	fmt.Printf("🔍 Finding pending orders created before %s\n", cutoff.Format(time.RFC3339))

	orders, err := repo.GetPendingOlderThan(ctx, cutoff)
	if err != nil {
		log.Fatalf("Failed to query pending orders: %v", err)
	}

	fmt.Printf("📋 Found %d stale pending orders\n\n", len(orders))
	if len(orders) == 0 {
		return
	}

	if *dryRun {
		for _, order := range orders {
			fmt.Printf("🏃 DRY RUN - Would expire order %s (created %s, amount %d)\n",
				order.ID, order.CreatedAt.Format(time.RFC3339), order.AmountCents)
		}
		return
	}

	var expired atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*workers)

	for _, order := range orders {
		order := order
		g.Go(func() error {
			if err := repo.UpdateStatus(gctx, order.ID, domain.OrderStatusExpired); err != nil {
				return fmt.Errorf("order %s: %w", order.ID, err)
			}
			expired.Add(1)
			fmt.Printf("✅ Expired order %s\n", order.ID)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("Expiry pass failed: %v", err)
	}

	fmt.Printf("\n✅ Summary: %d of %d orders expired\n", expired.Load(), len(orders))
}
