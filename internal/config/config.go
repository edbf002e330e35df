package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Search     SearchConfig
	Storage    StorageConfig
	Auth       AuthConfig
	Embedding  EmbeddingConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, takes precedence over the fields below
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
	AutoMigrate        bool
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SearchConfig holds search-related configuration
type SearchConfig struct {
	DefaultLimit        int
	MaxLimit            int
	SimilarDefaultLimit int
}

// StorageConfig selects the listing store implementation
type StorageConfig struct {
	Driver string // postgres or memory

	// SeedOwners are loaded into the memory driver at startup. Ignored by postgres.
	SeedOwners []SeedOwner
}

// SeedOwner is one account entry of MEMORY_SEED_OWNERS, written as
// id:role[:tier[:status]], e.g. "1:agent:gold:active,2:admin"
type SeedOwner struct {
	ID     int64
	Role   string
	Tier   string
	Status string
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

// EmbeddingConfig holds vector settings for similar-listing lookups
type EmbeddingConfig struct {
	Dimensions int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	seedOwners, err := parseSeedOwners(getEnvAsList("MEMORY_SEED_OWNERS", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "estate"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
			AutoMigrate:        getEnvAsBool("PG_AUTO_MIGRATE", false),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnvAsList("CORS_ALLOWED_METHODS", "GET,POST,PATCH,DELETE,OPTIONS"),
			AllowedHeaders: getEnvAsList("CORS_ALLOWED_HEADERS", "Content-Type,Authorization,X-Request-ID"),
		},
		Search: SearchConfig{
			DefaultLimit:        getEnvAsInt("SEARCH_DEFAULT_LIMIT", 20),
			MaxLimit:            getEnvAsInt("SEARCH_MAX_LIMIT", 100),
			SimilarDefaultLimit: getEnvAsInt("SIMILAR_DEFAULT_LIMIT", 6),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(getEnv("STORAGE_DRIVER", "postgres")),
			SeedOwners: seedOwners,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTIssuer: getEnv("JWT_ISSUER", ""),
		},
		Embedding: EmbeddingConfig{
			Dimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 1536),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects combinations the server cannot start with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q (expected postgres or memory)", c.Storage.Driver)
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit <= 0 {
		return fmt.Errorf("search limits must be positive")
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("SEARCH_DEFAULT_LIMIT (%d) exceeds SEARCH_MAX_LIMIT (%d)", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must be positive")
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsList(key, defaultValue string) []string {
	parts := strings.Split(getEnv(key, defaultValue), ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}

// parseSeedOwners reads id:role[:tier[:status]] entries
func parseSeedOwners(entries []string) ([]SeedOwner, error) {
	owners := make([]SeedOwner, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 4 {
			return nil, fmt.Errorf("invalid MEMORY_SEED_OWNERS entry %q (expected id:role[:tier[:status]])", entry)
		}

		id, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid MEMORY_SEED_OWNERS id in %q", entry)
		}

		owner := SeedOwner{ID: id, Role: strings.ToLower(strings.TrimSpace(parts[1]))}
		if owner.Role == "" {
			return nil, fmt.Errorf("missing MEMORY_SEED_OWNERS role in %q", entry)
		}
		if len(parts) > 2 {
			owner.Tier = strings.ToLower(strings.TrimSpace(parts[2]))
		}
		if len(parts) > 3 {
			owner.Status = strings.ToLower(strings.TrimSpace(parts[3]))
		}
		owners = append(owners, owner)
	}
	return owners, nil
}
