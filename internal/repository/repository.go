package repository

import (
	"context"

	"estate-core/internal/model"
)

// ListingStore is the persistence contract for listings.
//
// Lookups by id return (nil, nil) when the listing does not exist; an error
// always means the store itself failed.
type ListingStore interface {
	FindMany(ctx context.Context, spec model.FilterSpec, sort model.SortKey, page model.PageSpec, includeInactive bool) ([]model.Listing, error)
	Count(ctx context.Context, spec model.FilterSpec, includeInactive bool) (int, error)
	FindOne(ctx context.Context, id int64) (*model.Listing, error)
	FindByOwner(ctx context.Context, ownerID int64, page model.PageSpec) ([]model.Listing, error)
	CountActiveByOwner(ctx context.Context, ownerID int64) (int, error)
	Create(ctx context.Context, ownerID int64, fields model.ListingFields) (*model.Listing, error)
	Update(ctx context.Context, id int64, patch model.ListingPatch) (*model.Listing, error)

	// IncrementViews atomically adds one to the view count and returns the
	// new value. found is false when the listing does not exist.
	IncrementViews(ctx context.Context, id int64) (count int64, found bool, err error)

	UpdateEmbedding(ctx context.Context, id int64, embedding []float32) (found bool, err error)
	BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string)
	FindSimilar(ctx context.Context, id int64, limit int) ([]model.Listing, error)
}

// OwnerStore resolves account state for the acting owner
type OwnerStore interface {
	GetOwner(ctx context.Context, id int64) (*model.Owner, error)
}

var (
	_ ListingStore = (*PostgresRepository)(nil)
	_ OwnerStore   = (*PostgresRepository)(nil)
	_ ListingStore = (*MemoryRepository)(nil)
	_ OwnerStore   = (*MemoryRepository)(nil)
)
