package router

import (
	"log"
	"os"
	"time"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/config"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/database"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/handlers"
	admin_handlers "github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/handlers/admin"
	auth_handlers "github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/handlers/auth"
	course_handlers "github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/handlers/course"
	enrollment_handlers "github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/handlers/enrollment"
	payment_handlers "github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/handlers/payment"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services/payment"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/utils/auth"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/utils/cache"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/utils/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// BuildRegistry constructs the payment provider registry from configuration.
// Adapters without a configured secret are left unregistered so a request for
// them fails loudly instead of calling the provider with empty credentials.
func BuildRegistry(env *config.EnviornmentVariable) *payment.Registry {
	registry := payment.NewRegistry(model.PaymentProvider(env.PAYMENT_PROVIDER))

	if env.PAYSTACK_SECRET_KEY != "" {
		registry.Register(payment.NewPaystackProvider(payment.PaystackConfig{
			SecretKey: env.PAYSTACK_SECRET_KEY,
			BaseURL:   env.PAYSTACK_BASE_URL,
		}))
	} else {
		log.Println("Warning: PAYSTACK_SECRET_KEY not set, paystack adapter disabled")
	}

	if env.FLUTTERWAVE_SECRET_KEY != "" {
		registry.Register(payment.NewFlutterwaveProvider(payment.FlutterwaveConfig{
			SecretKey:  env.FLUTTERWAVE_SECRET_KEY,
			SecretHash: env.FLUTTERWAVE_HASH,
			BaseURL:    env.FLUTTERWAVE_BASE_URL,
		}))
	} else {
		log.Println("Warning: FLUTTERWAVE_SECRET_KEY not set, flutterwave adapter disabled")
	}

	return registry
}

// Services bundles the constructed service graph so the cron manager and the
// routes share the same instances.
type Services struct {
	Enrollment   *services.EnrollmentService
	Recon        *services.ReconciliationService
	Webhooks     *services.WebhookService
	Checkout     *services.CheckoutService
	Refund       *services.RefundService
	Verification *services.VerificationService
}

// BuildServices wires the service graph on top of the DB and the registry
func BuildServices(db *gorm.DB, registry *payment.Registry, env *config.EnviornmentVariable) *Services {
	enrollment := services.NewEnrollmentService(db)
	recon := services.NewReconciliationService(db, enrollment)
	return &Services{
		Enrollment:   enrollment,
		Recon:        recon,
		Webhooks:     services.NewWebhookService(db, registry, recon),
		Checkout:     services.NewCheckoutService(db, registry, env.PAYMENT_CALLBACK_URL, env.DEFAULT_CURRENCY),
		Refund:       services.NewRefundService(db, registry, recon),
		Verification: services.NewVerificationService(db, registry, recon),
	}
}

func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable, svcs *Services) {
	jwtSecret := env.JWT_SECRET
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "uvarsity-payments-api"
	}

	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache for brute force protection
	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	courseHandler := course_handlers.NewCourseHandler(db)
	paymentHandler := payment_handlers.NewPaymentHandler(svcs.Checkout, svcs.Refund, svcs.Verification)
	webhookHandler := payment_handlers.NewWebhookHandler(svcs.Webhooks)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(svcs.Enrollment)
	adminHandler := admin_handlers.NewAdminHandler(db, svcs.Webhooks)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", func(c *fiber.Ctx) error { return handlers.HandleCheckHealth(c, store) })

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)

	// Course catalog (public, read-only)
	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)
	courses.Get("/:id", courseHandler.GetCourse)

	// Payments
	payments := api.Group("/payments")

	// Webhook receiver is public: the body signature is the credential, and
	// the rate limiter exempts this path so redeliveries are never throttled.
	payments.Post("/webhook/:provider", webhookHandler.Receive)

	payments.Post("/checkout", authMiddleware.Required(), paymentHandler.Checkout)
	payments.Get("/verify/:reference", authMiddleware.Required(), paymentHandler.VerifyPayment)
	payments.Get("/", authMiddleware.Required(), paymentHandler.ListPayments)
	payments.Get("/:id", authMiddleware.Required(), paymentHandler.GetPayment)
	payments.Post("/:id/refund", authMiddleware.RequireAdmin(), paymentHandler.RefundPayment)

	// Enrollments (protected)
	enrollments := api.Group("/enrollments", authMiddleware.Required())
	enrollments.Get("/", enrollmentHandler.ListMyEnrollments)

	// Admin inspection endpoints
	admin := api.Group("/admin", authMiddleware.RequireAdmin())
	admin.Get("/webhook-events", adminHandler.ListWebhookEvents)
	admin.Get("/webhook-events/:id", adminHandler.GetWebhookEvent)
	admin.Get("/cron-logs", adminHandler.ListCronJobLogs)
}
