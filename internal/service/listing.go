package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"estate-core/internal/model"
	"estate-core/internal/repository"
	"estate-core/internal/utils"
)

var (
	// ErrNotFound is returned when a listing does not exist or is hidden from the caller
	ErrNotFound = errors.New("listing not found")
	// ErrForbidden is returned when the caller may not modify a listing
	ErrForbidden = errors.New("not allowed to modify this listing")
	// ErrEmbeddingDimensions is returned when an embedding has the wrong length
	ErrEmbeddingDimensions = errors.New("invalid embedding dimensions")
)

// ListingService orchestrates filtering, persistence, view counting and the
// create gate. The acting owner is always passed in explicitly.
type ListingService struct {
	repo       repository.ListingStore
	views      *ViewCounter
	dimensions int
}

// NewListingService creates a new listing service
func NewListingService(repo repository.ListingStore, embeddingDimensions int) *ListingService {
	return &ListingService{
		repo:       repo,
		views:      NewViewCounter(repo),
		dimensions: embeddingDimensions,
	}
}

// Search compiles the raw query and returns one page of active listings
func (s *ListingService) Search(
	ctx context.Context,
	raw map[string]string,
	sort model.SortKey,
	page model.PageSpec,
) (*model.SearchResponse, error) {
	startTime := time.Now()

	spec := CompileFilter(raw)

	listings, err := s.repo.FindMany(ctx, spec, sort, page, false)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, spec, false)
	if err != nil {
		return nil, err
	}

	return &model.SearchResponse{
		Results: listings,
		Total:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		Sort:    sort,
		HasMore: page.Offset+len(listings) < total,
		Took:    time.Since(startTime).Milliseconds(),
	}, nil
}

// GetListing returns a listing if the viewer may see it. Inactive listings
// are visible only to their owner and admins; viewer may be nil.
func (s *ListingService) GetListing(ctx context.Context, viewer *model.Owner, id int64) (*model.Listing, error) {
	listing, err := s.repo.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrNotFound
	}
	if !listing.IsActive && (viewer == nil || !viewer.CanManage(listing)) {
		return nil, ErrNotFound
	}
	return listing, nil
}

// ViewListing returns a listing and records one view. The returned listing
// carries the incremented count.
func (s *ListingService) ViewListing(ctx context.Context, viewer *model.Owner, id int64) (*model.Listing, error) {
	listing, err := s.GetListing(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	count, found, err := s.views.Increment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		// deleted between read and increment
		return nil, ErrNotFound
	}
	listing.ViewCount = count
	return listing, nil
}

// CreateListing publishes a listing for owner if the create gate allows it.
// A denied request returns a nil listing, the decision and a nil error.
func (s *ListingService) CreateListing(
	ctx context.Context,
	owner model.Owner,
	req *model.CreateListingRequest,
) (*model.Listing, Decision, error) {
	active, err := s.repo.CountActiveByOwner(ctx, owner.ID)
	if err != nil {
		return nil, Decision{}, err
	}

	decision := AuthorizeCreate(owner, active)
	if !decision.Allowed {
		log.Printf("Create denied for owner %d: %s (%d/%d)", owner.ID, decision.Reason, active, decision.Limit)
		return nil, decision, nil
	}

	listing, err := s.repo.Create(ctx, owner.ID, fieldsFromRequest(req))
	if err != nil {
		return nil, decision, err
	}
	return listing, decision, nil
}

// UpdateListing applies a partial update. Only the owner or an admin may
// update a listing. Toggling is_active is not re-checked against the plan
// limit; the create gate applies at creation only.
func (s *ListingService) UpdateListing(
	ctx context.Context,
	owner model.Owner,
	id int64,
	req *model.UpdateListingRequest,
) (*model.Listing, error) {
	current, err := s.repo.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotFound
	}
	if !owner.CanManage(current) {
		return nil, ErrForbidden
	}

	updated, err := s.repo.Update(ctx, id, patchFromRequest(req))
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}

// OwnerListings returns every listing of owner, active or not, newest first
func (s *ListingService) OwnerListings(ctx context.Context, owner model.Owner, page model.PageSpec) ([]model.Listing, error) {
	return s.repo.FindByOwner(ctx, owner.ID, page)
}

// SimilarListings returns the active listings nearest to id in embedding space
func (s *ListingService) SimilarListings(ctx context.Context, id int64, limit int) ([]model.Listing, error) {
	listing, err := s.repo.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing == nil || !listing.IsActive {
		return nil, ErrNotFound
	}
	return s.repo.FindSimilar(ctx, id, limit)
}

// UpdateEmbeddings stores embeddings for multiple listings. Every item must
// have the configured number of dimensions.
func (s *ListingService) UpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string, error) {
	for i, item := range items {
		if len(item.Embedding) != s.dimensions {
			return 0, nil, fmt.Errorf("%w at index %d: got %d, expected %d",
				ErrEmbeddingDimensions, i, len(item.Embedding), s.dimensions)
		}
	}

	success, errs := s.repo.BatchUpdateEmbeddings(ctx, items)
	if len(errs) > 0 {
		log.Printf("Warning: %d of %d embeddings failed to update", len(errs), len(items))
	}
	return success, errs, nil
}

func fieldsFromRequest(req *model.CreateListingRequest) model.ListingFields {
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = model.DefaultCurrency
	}

	return model.ListingFields{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Price:        req.Price,
		Currency:     currency,
		ListingType:  model.ListingType(strings.ToLower(strings.TrimSpace(req.ListingType))),
		PropertyType: strings.ToLower(strings.TrimSpace(req.PropertyType)),
		Location: model.Location{
			Country: strings.TrimSpace(req.Location.Country),
			Region:  strings.TrimSpace(req.Location.Region),
			City:    strings.TrimSpace(req.Location.City),
			Address: strings.TrimSpace(req.Location.Address),
		},
		Bedrooms:         req.Bedrooms,
		Bathrooms:        req.Bathrooms,
		AreaSquareMeters: req.AreaSquareMeters,
		Features:         utils.NormalizeFeatures(req.Features),
		Images:           utils.CleanImages(req.Images),
		IsActive:         req.IsActive,
		IsFeatured:       req.IsFeatured,
	}
}

func patchFromRequest(req *model.UpdateListingRequest) model.ListingPatch {
	patch := model.ListingPatch{
		Title:            trimPtr(req.Title),
		Description:      trimPtr(req.Description),
		Price:            req.Price,
		PropertyType:     lowerPtr(req.PropertyType),
		Country:          trimPtr(req.Country),
		Region:           trimPtr(req.Region),
		City:             trimPtr(req.City),
		Address:          trimPtr(req.Address),
		Bedrooms:         req.Bedrooms,
		Bathrooms:        req.Bathrooms,
		AreaSquareMeters: req.AreaSquareMeters,
		IsActive:         req.IsActive,
		IsFeatured:       req.IsFeatured,
	}

	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if currency == "" {
			currency = model.DefaultCurrency
		}
		patch.Currency = &currency
	}
	if lt := lowerPtr(req.ListingType); lt != nil {
		listingType := model.ListingType(*lt)
		if listingType.Valid() {
			patch.ListingType = &listingType
		}
	}
	if req.Features != nil {
		features := utils.NormalizeFeatures(*req.Features)
		patch.Features = &features
	}
	if req.Images != nil {
		images := utils.CleanImages(*req.Images)
		patch.Images = &images
	}

	return patch
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func lowerPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*s))
	return &v
}
