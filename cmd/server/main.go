package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estate-core/internal/config"
	"estate-core/internal/handler"
	"estate-core/internal/middleware"
	"estate-core/internal/model"
	"estate-core/internal/repository"
	"estate-core/internal/service"

	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// store is what the server needs from a storage driver
type store interface {
	repository.ListingStore
	repository.OwnerStore
}

func main() {
	// Print version info
	log.Printf("Estate Core Listing Service")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	repo, closeRepo, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeRepo()

	if cfg.Auth.JWTSecret == "" {
		log.Println("⚠️  JWT_SECRET is not set - authenticated endpoints will reject every request")
	}

	// Initialize services
	listingService := service.NewListingService(repo, cfg.Embedding.Dimensions)
	authenticator := middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, repo)

	log.Println("✅ Services initialized")

	// Initialize handlers
	listingHandler := handler.NewListingHandler(
		listingService,
		cfg.Search.DefaultLimit,
		cfg.Search.MaxLimit,
		cfg.Search.SimilarDefaultLimit,
	)
	embeddingHandler := handler.NewEmbeddingHandler(listingService)

	router := handler.NewRouter(handler.RouterOptions{
		Listings:       listingHandler,
		Embeddings:     embeddingHandler,
		Auth:           authenticator,
		Build:          handler.BuildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: cfg.Server.AllowedMethods,
		AllowedHeaders: cfg.Server.AllowedHeaders,
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("🚀 Starting server on %s", addr)
	log.Printf("📝 API: http://localhost:%d/api/v1/listings", cfg.Server.Port)

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Warning: forced shutdown: %v", err)
	}
	log.Println("✅ Server stopped")
}

// openStore connects the configured storage driver
func openStore(cfg *config.Config) (store, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		log.Println("⚠️  Using in-memory storage - data is lost on restart")
		repo := repository.NewMemoryRepository()
		for _, seed := range cfg.Storage.SeedOwners {
			repo.PutOwner(ownerFromSeed(seed))
		}
		if len(cfg.Storage.SeedOwners) == 0 {
			log.Println("⚠️  MEMORY_SEED_OWNERS is empty - authenticated endpoints will answer 401")
		} else {
			log.Printf("✅ Seeded %d accounts into memory storage", len(cfg.Storage.SeedOwners))
		}
		return repo, func() {}, nil
	default:
		repo, err := repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		log.Println("✅ Connected to PostgreSQL database")

		if cfg.PostgreSQL.AutoMigrate {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := repo.InitSchema(ctx, cfg.Embedding.Dimensions); err != nil {
				repo.Close()
				return nil, nil, fmt.Errorf("initialize schema: %w", err)
			}
			log.Println("✅ Database schema ready")
		}

		return repo, func() { repo.Close() }, nil
	}
}

func ownerFromSeed(seed config.SeedOwner) model.Owner {
	owner := model.Owner{
		ID:                 seed.ID,
		Role:               model.Role(seed.Role),
		SubscriptionStatus: model.SubscriptionStatus(seed.Status),
	}
	if seed.Tier != "" {
		tier := seed.Tier
		owner.SubscriptionTier = &tier
	}
	return owner
}
