package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"dmbox/infrastructure/cache"
	"dmbox/infrastructure/db"
	"dmbox/infrastructure/ws"
	httpHandler "dmbox/internal/delivery/http"
	wsDelivery "dmbox/internal/delivery/websocket"
	"dmbox/internal/repository"
	"dmbox/internal/usecase"
	"dmbox/pkg/jwt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func Run() {
	err := godotenv.Load()
	if err != nil {
		fmt.Println("godotenv: error loading .env file")
	}

	ctx := context.Background()

	mongoDbHost := os.Getenv("MONGODB_URI")
	mongoDbName := os.Getenv("MONGODB_DATABASE")
	mongoDb, err := db.NewMongoStore(ctx, mongoDbHost, mongoDbName)
	if err != nil {
		panic(err)
	}

	log.Println("Connected to MongoDB")

	if err := mongoDb.EnsureIndexes(ctx); err != nil {
		panic(err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(*mongoDb.DB)
	convRepo := repository.NewConversationRepository(*mongoDb.DB)
	messageRepo := repository.NewMessageRepository(*mongoDb.DB)
	deletionRepo := repository.NewDeletionRepository(*mongoDb.DB)
	receiptRepo := repository.NewReadReceiptRepository(*mongoDb.DB)
	rateLimitRepo := repository.NewRateLimitRepository(*mongoDb.DB)
	reportRepo := repository.NewReportRepository(*mongoDb.DB)
	alertRepo := repository.NewAlertRepository(*mongoDb.DB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(*mongoDb.DB)

	// Profile lookups get a short-TTL cache; the send path reads the
	// user record directly so inbox opt-outs apply immediately.
	profileCache := cache.NewMemCache(time.Minute)
	profileRepo := repository.NewCachedUserRepository(userRepo, profileCache, 30*time.Second)

	// Purge expired refresh tokens in the background.
	go func() {
		ticker := time.NewTicker(12 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := refreshTokenRepo.DeleteExpired(ctx); err != nil {
				log.Printf("delete expired refresh tokens error: %v", err)
			}
		}
	}()

	// Initialize JWT manager
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-this-in-production" // Default for development
		log.Println("Warning: Using default JWT secret. Set JWT_SECRET in .env for production")
	}

	// Access token: 15 minutes, Refresh token: 30 days
	jwtManager := jwt.NewManager(jwtSecret, 15*time.Minute, 30*24*time.Hour)

	// Check if Redis is enabled
	redisAddr := os.Getenv("REDIS_ADDR")

	var hub ws.IHub
	if redisAddr != "" {
		serverID := os.Getenv("SERVER_ID")
		if serverID == "" {
			serverID = "server-1" // Default
		}

		log.Printf("Using Redis alert hub at %s with server ID: %s", redisAddr, serverID)
		hub = ws.NewRedisHub(redisAddr, serverID)
	} else {
		log.Println("Using in-memory alert hub (single server)")
		hub = ws.NewHub()
	}

	go hub.Run()

	// Initialize use cases
	authUc := usecase.NewAuthUsecase(userRepo, refreshTokenRepo, jwtManager)
	userUc := usecase.NewUserUsecase(userRepo)
	alertUc := usecase.NewAlertUsecase(alertRepo, hub)

	limiter := usecase.NewRateLimiter(rateLimitRepo, usecase.RateLimits{
		HourlyPerRecipient: envInt("DM_HOURLY_LIMIT", usecase.DefaultHourlyLimit),
		DailyGlobal:        envInt("DM_DAILY_LIMIT", usecase.DefaultDailyLimit),
	})
	ledger := usecase.NewDeletionLedger(deletionRepo, messageRepo, convRepo)

	messagingUc := usecase.NewMessagingUsecase(
		convRepo, messageRepo, receiptRepo, reportRepo,
		userRepo, profileRepo, ledger, limiter, alertUc, mongoDb,
	)

	// CORS middleware
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost:3000")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			// Handle preflight requests
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Initialize handlers
	alertStreamH := wsDelivery.NewAlertStreamHandler(hub, userUc)
	messagingH := httpHandler.NewMessagingHandler(messagingUc, alertUc)
	userH := httpHandler.NewUserHandler(userUc)
	healthH := httpHandler.NewHealthHandler(mongoDb, hub)
	authH := httpHandler.NewAuthHandler(authUc)
	authMiddleware := httpHandler.NewAuthMiddleware(authUc)

	// Map routes
	httpHandler.MapHttpRoutes(router, messagingH, userH, healthH, alertStreamH, authH, authMiddleware)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("HTTP server is running on :%s", port)

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal(err)
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using default %d", key, raw, fallback)
		return fallback
	}
	return parsed
}
