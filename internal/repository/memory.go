package repository

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"estate-core/internal/model"
)

// MemoryRepository keeps listings and owners in process memory. Every
// mutation runs under a single lock, which also makes view-count increments
// atomic.
type MemoryRepository struct {
	mu         sync.RWMutex
	nextID     int64
	listings   map[int64]*model.Listing
	embeddings map[int64][]float32
	owners     map[int64]model.Owner
	now        func() time.Time
}

// NewMemoryRepository creates an empty in-memory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		listings:   make(map[int64]*model.Listing),
		embeddings: make(map[int64][]float32),
		owners:     make(map[int64]model.Owner),
		now:        time.Now,
	}
}

// SetClock replaces the time source used for created_at/updated_at
func (r *MemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// PutOwner inserts or replaces an account
func (r *MemoryRepository) PutOwner(owner model.Owner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[owner.ID] = owner
}

// GetOwner returns the account or nil when unknown
func (r *MemoryRepository) GetOwner(ctx context.Context, id int64) (*model.Owner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, ok := r.owners[id]
	if !ok {
		return nil, nil
	}
	return &owner, nil
}

// FindMany filters, sorts and paginates the stored listings
func (r *MemoryRepository) FindMany(
	ctx context.Context,
	spec model.FilterSpec,
	sortKey model.SortKey,
	page model.PageSpec,
	includeInactive bool,
) ([]model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	matched := r.matching(spec, includeInactive)
	r.mu.RUnlock()

	sortListings(matched, sortKey)
	return paginate(matched, page), nil
}

// Count returns the number of listings matching the filter
func (r *MemoryRepository) Count(ctx context.Context, spec model.FilterSpec, includeInactive bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matching(spec, includeInactive)), nil
}

// FindOne returns a copy of the listing regardless of is_active
func (r *MemoryRepository) FindOne(ctx context.Context, id int64) (*model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.listings[id]
	if !ok {
		return nil, nil
	}
	c := cloneListing(l)
	return &c, nil
}

// FindByOwner lists an owner's listings newest first, inactive included
func (r *MemoryRepository) FindByOwner(ctx context.Context, ownerID int64, page model.PageSpec) ([]model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var owned []model.Listing
	for _, l := range r.listings {
		if l.OwnerID == ownerID {
			owned = append(owned, cloneListing(l))
		}
	}
	r.mu.RUnlock()

	sortListings(owned, model.SortNewest)
	return paginate(owned, page), nil
}

// CountActiveByOwner returns how many active listings an owner has
func (r *MemoryRepository) CountActiveByOwner(ctx context.Context, ownerID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, l := range r.listings {
		if l.OwnerID == ownerID && l.IsActive {
			count++
		}
	}
	return count, nil
}

// Create stores a new listing with the next id
func (r *MemoryRepository) Create(ctx context.Context, ownerID int64, fields model.ListingFields) (*model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := r.now()
	isActive := true
	if fields.IsActive != nil {
		isActive = *fields.IsActive
	}

	l := &model.Listing{
		ID:               r.nextID,
		OwnerID:          ownerID,
		Title:            fields.Title,
		Description:      fields.Description,
		Price:            fields.Price,
		Currency:         fields.Currency,
		ListingType:      fields.ListingType,
		PropertyType:     fields.PropertyType,
		Location:         fields.Location,
		Bedrooms:         fields.Bedrooms,
		Bathrooms:        fields.Bathrooms,
		AreaSquareMeters: fields.AreaSquareMeters,
		Features:         append([]string{}, fields.Features...),
		Images:           append([]string{}, fields.Images...),
		IsActive:         isActive,
		IsFeatured:       fields.IsFeatured,
		ViewCount:        0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	r.listings[l.ID] = l

	c := cloneListing(l)
	return &c, nil
}

// Update applies the non-nil patch fields
func (r *MemoryRepository) Update(ctx context.Context, id int64, patch model.ListingPatch) (*model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[id]
	if !ok {
		return nil, nil
	}
	if !patch.IsEmpty() {
		patch.Apply(l)
		l.UpdatedAt = r.now()
	}

	c := cloneListing(l)
	return &c, nil
}

// IncrementViews adds one to the view count under the write lock
func (r *MemoryRepository) IncrementViews(ctx context.Context, id int64) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[id]
	if !ok {
		return 0, false, nil
	}
	l.ViewCount++
	return l.ViewCount, true, nil
}

// UpdateEmbedding stores a copy of the vector
func (r *MemoryRepository) UpdateEmbedding(ctx context.Context, id int64, embedding []float32) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[id]; !ok {
		return false, nil
	}
	r.embeddings[id] = append([]float32(nil), embedding...)
	return true, nil
}

// BatchUpdateEmbeddings stores each vector, reporting per-item failures
func (r *MemoryRepository) BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	success := 0
	var errs []string
	for _, item := range items {
		found, err := r.UpdateEmbedding(ctx, item.ListingID, item.Embedding)
		if err != nil {
			errs = append(errs, fmt.Sprintf("listing_id %d: %v", item.ListingID, err))
			continue
		}
		if !found {
			errs = append(errs, fmt.Sprintf("listing_id %d: not found", item.ListingID))
			continue
		}
		success++
	}
	return success, errs
}

// FindSimilar ranks active listings by Euclidean distance to id's embedding
func (r *MemoryRepository) FindSimilar(ctx context.Context, id int64, limit int) ([]model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, ok := r.embeddings[id]
	if !ok || limit <= 0 {
		return []model.Listing{}, nil
	}

	type candidate struct {
		listing  model.Listing
		distance float64
	}
	var candidates []candidate
	for otherID, vec := range r.embeddings {
		l := r.listings[otherID]
		if otherID == id || l == nil || !l.IsActive || len(vec) != len(source) {
			continue
		}
		candidates = append(candidates, candidate{listing: cloneListing(l), distance: euclidean(source, vec)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].listing.ID > candidates[j].listing.ID
	})

	result := make([]model.Listing, 0, min(limit, len(candidates)))
	for i := 0; i < len(candidates) && i < limit; i++ {
		result = append(result, candidates[i].listing)
	}
	return result, nil
}

// matching must be called with the read lock held
func (r *MemoryRepository) matching(spec model.FilterSpec, includeInactive bool) []model.Listing {
	var matched []model.Listing
	for _, l := range r.listings {
		if !includeInactive && !l.IsActive {
			continue
		}
		if spec.Matches(l) {
			matched = append(matched, cloneListing(l))
		}
	}
	return matched
}

func sortListings(listings []model.Listing, sortKey model.SortKey) {
	sort.Slice(listings, func(i, j int) bool {
		a, b := listings[i], listings[j]
		switch sortKey {
		case model.SortPriceAsc:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		case model.SortPriceDesc:
			if a.Price != b.Price {
				return a.Price > b.Price
			}
		case model.SortSizeDesc:
			if a.AreaSquareMeters != b.AreaSquareMeters {
				return a.AreaSquareMeters > b.AreaSquareMeters
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID > b.ID
	})
}

func paginate(listings []model.Listing, page model.PageSpec) []model.Listing {
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}
	if page.Limit <= 0 || offset >= len(listings) {
		return []model.Listing{}
	}
	end := offset + page.Limit
	if end > len(listings) {
		end = len(listings)
	}
	return listings[offset:end]
}

func cloneListing(l *model.Listing) model.Listing {
	c := *l
	c.Features = append([]string{}, l.Features...)
	c.Images = append([]string{}, l.Images...)
	return c
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
