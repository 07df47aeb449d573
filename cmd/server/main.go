package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"cardgate_app/internal/gateway"
	"cardgate_app/internal/handlers"
	"cardgate_app/internal/middleware"
	"cardgate_app/internal/repository"
	"cardgate_app/internal/services"
)

func gatewayConfig() gateway.Config {
	locale := os.Getenv("GATEWAY_LOCALE")
	if locale == "" {
		locale = "en"
	}
	return gateway.Config{
		BaseURL:     os.Getenv("GATEWAY_BASE_URL"),
		APIKey:      os.Getenv("GATEWAY_API_KEY"),
		SecretKey:   os.Getenv("GATEWAY_SECRET_KEY"),
		CallbackURL: os.Getenv("GATEWAY_CALLBACK_URL"),
		Locale:      locale,
	}
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Firebase
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Auth features will not work until valid credentials are provided")
	}

	// Initialize Database
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	db, err := services.InitDB(dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Initialize Redis (optional, caching and callback locks)
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis initialization failed: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	} else {
		log.Println("Warning: REDIS_URL not set, caching and callback locking disabled")
	}

	// Initialize payment gateway
	cfg := gatewayConfig()
	if cfg.BaseURL == "" || cfg.APIKey == "" || cfg.SecretKey == "" {
		log.Fatal("GATEWAY_BASE_URL, GATEWAY_API_KEY and GATEWAY_SECRET_KEY must be set")
	}
	gw := gateway.New(cfg)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := gw.TestConnection(ctx); err != nil {
			log.Fatalf("Gateway connection test failed: %v", err)
		}
	}

	// Repositories
	attempts := repository.NewGormAttemptRepository(db)
	transactions := repository.NewGormTransactionRepository(db)
	products := repository.NewGormProductRepository(db)
	cards := repository.NewGormCardRepository(db)
	customers := repository.NewGormCustomerRepository(db)

	// Services
	attemptLogger := services.NewAttemptLogger(attempts)
	recorder := services.NewTransactionRecorder(transactions)
	paymentService := services.NewPaymentService(cfg, gw, cards, attemptLogger, recorder)
	var locks services.Locker
	if cache != nil {
		locks = cache
	}
	threedsService := services.NewThreedsService(gw, attemptLogger, attempts, transactions, recorder, locks)
	voidService := services.NewVoidService(gw, transactions)
	cardService := services.NewCardService(gw, cards, customers, cache)
	planService := services.NewPlanService(db, paymentService, customers, products)

	// Create Echo instance
	e := echo.New()
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.HTTPErrorHandler = middleware.APIErrorHandler

	// Initialize handlers
	paymentHandler := handlers.NewPaymentHandler(paymentService, threedsService, voidService, customers, products, cards, attempts, transactions)
	cardHandler := handlers.NewCardHandler(cardService, cards, customers, cache)
	planHandler := handlers.NewPlanHandler(planService, products)

	// The gateway posts the 3DS result here; it carries no bearer token
	e.POST("/api/payments/threeds/callback", paymentHandler.ThreedsCallback)

	// Protected routes
	api := e.Group("/api")
	api.Use(middleware.RequireAuth(authClient))
	api.POST("/payments", paymentHandler.CreatePayment)
	api.POST("/transactions/:id/void", paymentHandler.VoidTransaction)
	api.GET("/attempts/pending", paymentHandler.PendingAttempts)
	api.GET("/customers/:customerId/cards", cardHandler.ListCards)
	api.POST("/cards", cardHandler.AddCard)
	api.DELETE("/cards/:id", cardHandler.RemoveCard)
	api.POST("/plans", planHandler.CreatePlan)
	api.POST("/plans/charge-due", planHandler.ChargeDuePlans)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
