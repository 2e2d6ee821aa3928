package tests

import (
	"context"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stridelab/stridefit/internal/domain"
	"github.com/stridelab/stridefit/internal/service"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SetupTestDB spins up a fresh MongoDB container and returns the database connection
// along with a cleanup function.
func SetupTestDB(t *testing.T) (*mongo.Database, func()) {
	ctx := context.Background()

	mongodbContainer, err := mongodb.Run(ctx, "mongo:latest")
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
	}

	endpoint, err := mongodbContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(endpoint))
	if err != nil {
		t.Fatalf("failed to connect to mongo: %v", err)
	}

	return mongoClient.Database("test_db"), func() {
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Printf("failed to disconnect mongo: %v", err)
		}
		if err := mongodbContainer.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %v", err)
		}
	}
}

// RecordingCheckoutProvider implements service.CheckoutProvider and
// records every session request so tests can assert on what the payment
// provider would have received.
type RecordingCheckoutProvider struct {
	mu       sync.Mutex
	Requests []service.CheckoutParams
}

func NewRecordingCheckoutProvider() *RecordingCheckoutProvider {
	return &RecordingCheckoutProvider{}
}

func (p *RecordingCheckoutProvider) CreateSession(ctx context.Context, params service.CheckoutParams) (*service.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Requests = append(p.Requests, params)

	return &service.CheckoutSession{
		ID:        "cs_test_" + params.OrderID,
		URL:       "https://checkout.test/session/cs_test_" + params.OrderID,
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	}, nil
}

// LastRequest returns the most recent session request, or nil
func (p *RecordingCheckoutProvider) LastRequest() *service.CheckoutParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Requests) == 0 {
		return nil
	}
	return &p.Requests[len(p.Requests)-1]
}

// MintAdminToken signs a short-lived admin JWT for exercising the
// admin catalog endpoints.
func MintAdminToken(t *testing.T, secret string) string {
	t.Helper()

	now := time.Now().UTC()
	claims := domain.StrideFitClaims{
		UserID: "test-admin",
		Email:  "admin@test.local",
		Roles:  []string{domain.RoleAdmin},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}
