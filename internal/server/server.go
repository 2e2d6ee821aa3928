package server

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/stridelab/stridefit/internal/config"
	"github.com/stridelab/stridefit/internal/domain"
	"github.com/stridelab/stridefit/internal/handler"
	"github.com/stridelab/stridefit/internal/middleware"
	"github.com/stridelab/stridefit/internal/repository"
	"github.com/stridelab/stridefit/internal/service"
	"go.mongodb.org/mongo-driver/mongo"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config           *config.Config
	MongoDB          *mongo.Database
	RedisClient      *redis.Client
	CheckoutProvider service.CheckoutProvider
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	// Initialize repositories
	productRepo := repository.NewMongoProductRepository(deps.MongoDB)
	orderRepo := repository.NewMongoOrderRepository(deps.MongoDB)
	userRepo := repository.NewMongoUserRepository(deps.MongoDB)
	subscriptionRepo := repository.NewMongoSubscriptionRepository(deps.MongoDB)
	giftRepo := repository.NewMongoGiftRepository(deps.MongoDB)
	cartRepo := repository.NewRedisCartRepository(deps.RedisClient)

	// Product images live in any S3-compatible store. The API still
	// works without one; image uploads just return an error.
	var fileRepo domain.FileRepository
	if deps.Config.S3.Endpoint != "" {
		s3Repo, err := repository.NewS3AssetRepository(context.Background(), deps.Config.S3)
		if err != nil {
			log.Printf("Warning: Failed to initialize S3 repository: %v", err)
		} else {
			fileRepo = s3Repo
		}
	}

	// Initialize services
	cartService := service.NewCartService(cartRepo, productRepo)

	checkoutProvider := deps.CheckoutProvider
	if checkoutProvider == nil {
		checkoutProvider = service.NewCheckoutProvider(deps.Config.Stripe)
	}

	fulfillmentService := service.NewFulfillmentService(
		orderRepo,
		userRepo,
		productRepo,
		subscriptionRepo,
		giftRepo,
		cartRepo,
	)

	// Initialize handlers
	cartHandler := handler.NewCartHandler(cartService)
	checkoutHandler := handler.NewCheckoutHandler(cartService, orderRepo, productRepo, checkoutProvider)
	webhookHandler := handler.NewWebhookHandler(orderRepo, fulfillmentService, deps.Config.Stripe.WebhookSecret)
	catalogHandler := handler.NewCatalogHandler(productRepo, fileRepo, deps.Config.Server.MaxUploadSizeMB)
	giftHandler := handler.NewGiftHandler(giftRepo, fulfillmentService)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "StrideFit Store API",
		BodyLimit:    int(deps.Config.Server.MaxUploadSizeMB * 1024 * 1024),
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.Server.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "stridefit-store",
		})
	})

	api := app.Group("/api")

	// ===========================================
	// CATALOG API - public read
	// ===========================================
	api.Get("/catalog", catalogHandler.ListProducts)
	api.Get("/catalog/:id", catalogHandler.GetProduct)

	// ===========================================
	// CART API - anonymous, cookie-scoped
	// ===========================================
	cart := api.Group("/cart")
	cart.Use(middleware.CartSession())

	cart.Get("/", cartHandler.GetCart)
	cart.Delete("/", cartHandler.ClearCart)
	cart.Post("/items", cartHandler.AddItem)
	cart.Delete("/items/:id", cartHandler.RemoveItem)
	cart.Patch("/items/:id/interval", cartHandler.UpdateInterval)
	cart.Patch("/items/:id/gift", cartHandler.UpdateGift)
	cart.Patch("/items/:id/customer", cartHandler.UpdateCustomer)

	// ===========================================
	// CHECKOUT API - anonymous, idempotent on X-Correlation-ID
	// ===========================================
	checkout := api.Group("/checkout")
	checkout.Use(middleware.CartSession())
	checkout.Use(middleware.IdempotencyMiddleware(deps.RedisClient, 24*time.Hour))

	checkout.Post("/", checkoutHandler.Checkout)
	checkout.Get("/orders/:id", checkoutHandler.GetOrderStatus)

	// ===========================================
	// GIFTS API - public, code is the credential
	// ===========================================
	gifts := api.Group("/gifts")
	gifts.Get("/:code", giftHandler.GetGift)
	gifts.Post("/:code/redeem", giftHandler.RedeemGift)

	// ===========================================
	// WEBHOOKS - public, signature-verified
	// ===========================================
	api.Post("/webhooks/stripe", webhookHandler.StripeWebhook)

	// ===========================================
	// ADMIN API - requires 'admin' role
	// ===========================================
	admin := api.Group("/admin")
	admin.Use(middleware.VerifyStrideFitToken(deps.Config.JWT.Secret))
	admin.Use(middleware.AuthorizeRole(domain.RoleAdmin))

	admin.Post("/catalog", catalogHandler.CreateProduct)
	admin.Put("/catalog/:id", catalogHandler.UpdateProduct)
	admin.Post("/catalog/:id/image", catalogHandler.UploadProductImage)

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	log.Printf("Error: %v", err)
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
