package service

import (
	"context"

	"estate-core/internal/repository"
)

// ViewCounter records detail-page views. It does no deduplication: every
// call counts.
type ViewCounter struct {
	repo repository.ListingStore
}

// NewViewCounter creates a view counter backed by repo
func NewViewCounter(repo repository.ListingStore) *ViewCounter {
	return &ViewCounter{repo: repo}
}

// Increment adds one view and returns the new count. found is false when the
// listing does not exist.
func (v *ViewCounter) Increment(ctx context.Context, listingID int64) (int64, bool, error) {
	return v.repo.IncrementViews(ctx, listingID)
}
