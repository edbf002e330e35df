package handler

import (
	"net/http"
	"strings"

	"estate-core/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// BuildInfo is reported by /health and /version
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// RouterOptions wires handlers and middleware into a router
type RouterOptions struct {
	Listings       *ListingHandler
	Embeddings     *EmbeddingHandler
	Auth           *middleware.Authenticator
	Build          BuildInfo
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// NewRouter builds the gin engine with every API route registered
func NewRouter(opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	if len(opts.AllowedOrigins) == 0 || (len(opts.AllowedOrigins) == 1 && opts.AllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.AllowedOrigins
	}
	if len(opts.AllowedMethods) > 0 {
		corsConfig.AllowMethods = opts.AllowedMethods
	}
	if len(opts.AllowedHeaders) > 0 {
		corsConfig.AllowHeaders = opts.AllowedHeaders
	}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "estate-core",
			"version":    opts.Build.Version,
			"build_time": opts.Build.BuildTime,
			"git_commit": opts.Build.GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    opts.Build.Version,
			"build_time": opts.Build.BuildTime,
			"git_commit": opts.Build.GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		// Public search and detail
		apiV1.GET("/listings", opts.Listings.Search)
		apiV1.GET("/listings/:id", opts.Auth.OptionalAuth(), opts.Listings.GetListing)
		apiV1.GET("/listings/:id/similar", opts.Listings.Similar)

		// Owner endpoints
		apiV1.POST("/listings", opts.Auth.RequireAuth(), opts.Listings.Create)
		apiV1.PATCH("/listings/:id", opts.Auth.RequireAuth(), opts.Listings.Update)
		apiV1.GET("/owners/me/listings", opts.Auth.RequireAuth(), opts.Listings.Mine)

		// Embedding endpoints
		apiV1.POST("/embeddings/batch", opts.Auth.RequireAuth(), middleware.RequireAdmin(), opts.Embeddings.BatchUpdate)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return router
}
