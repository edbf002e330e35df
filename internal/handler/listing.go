package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"estate-core/internal/middleware"
	"estate-core/internal/model"
	"estate-core/internal/service"

	"github.com/gin-gonic/gin"
)

// retryLaterMessage is shown for store and other infrastructure failures
const retryLaterMessage = "Something went wrong, please try again later"

// searchKeys are the query parameters forwarded to the filter compiler
var searchKeys = []string{
	service.FilterKeyCountry,
	service.FilterKeyRegion,
	service.FilterKeyCity,
	service.FilterKeyPropertyType,
	service.FilterKeyListingType,
	service.FilterKeyMinPrice,
	service.FilterKeyMaxPrice,
	service.FilterKeyBedrooms,
	service.FilterKeyBathrooms,
}

// ListingHandler handles listing-related HTTP requests
type ListingHandler struct {
	listingService *service.ListingService
	defaultLimit   int
	maxLimit       int
	similarLimit   int
}

// NewListingHandler creates a new listing handler
func NewListingHandler(listingService *service.ListingService, defaultLimit, maxLimit, similarLimit int) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
		defaultLimit:   defaultLimit,
		maxLimit:       maxLimit,
		similarLimit:   similarLimit,
	}
}

// Search handles GET /api/v1/listings
func (h *ListingHandler) Search(c *gin.Context) {
	raw := make(map[string]string, len(searchKeys))
	for _, key := range searchKeys {
		if v, ok := c.GetQuery(key); ok {
			raw[key] = v
		}
	}

	sort := model.ParseSortKey(c.Query("sort"))
	page := h.page(c)

	response, err := h.listingService.Search(c.Request.Context(), raw, sort, page)
	if err != nil {
		log.Printf("[%s] Search failed: %v", c.GetString("request_id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": retryLaterMessage})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetListing handles GET /api/v1/listings/:id and counts one view
func (h *ListingHandler) GetListing(c *gin.Context) {
	listingID, ok := parseID(c)
	if !ok {
		return
	}

	listing, err := h.listingService.ViewListing(c.Request.Context(), middleware.OwnerFromContext(c), listingID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// Similar handles GET /api/v1/listings/:id/similar
func (h *ListingHandler) Similar(c *gin.Context) {
	listingID, ok := parseID(c)
	if !ok {
		return
	}

	limit := queryInt(c, "limit", h.similarLimit)
	if limit <= 0 {
		limit = h.similarLimit
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	listings, err := h.listingService.SimilarListings(c.Request.Context(), listingID, limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": listings})
}

// Create handles POST /api/v1/listings
func (h *ListingHandler) Create(c *gin.Context) {
	owner := middleware.OwnerFromContext(c)
	if owner == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req model.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	listing, decision, err := h.listingService.CreateListing(c.Request.Context(), *owner, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !decision.Allowed {
		denied(c, decision)
		return
	}

	c.JSON(http.StatusCreated, model.CreateListingResponse{
		Listing: listing,
		Limit:   decision.Limit,
		Active:  decision.Current + 1,
	})
}

// Update handles PATCH /api/v1/listings/:id
func (h *ListingHandler) Update(c *gin.Context) {
	owner := middleware.OwnerFromContext(c)
	if owner == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	listingID, ok := parseID(c)
	if !ok {
		return
	}

	var req model.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	listing, err := h.listingService.UpdateListing(c.Request.Context(), *owner, listingID, &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// Mine handles GET /api/v1/owners/me/listings
func (h *ListingHandler) Mine(c *gin.Context) {
	owner := middleware.OwnerFromContext(c)
	if owner == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	page := h.page(c)
	listings, err := h.listingService.OwnerListings(c.Request.Context(), *owner, page)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": listings,
		"limit":   page.Limit,
		"offset":  page.Offset,
	})
}

// page reads limit/offset, falling back to defaults and capping the limit
func (h *ListingHandler) page(c *gin.Context) model.PageSpec {
	limit := queryInt(c, "limit", h.defaultLimit)
	if limit <= 0 {
		limit = h.defaultLimit
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	return model.PageSpec{Offset: offset, Limit: limit}
}

func (h *ListingHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only modify your own listings"})
	default:
		log.Printf("[%s] Listing request failed: %v", c.GetString("request_id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": retryLaterMessage})
	}
}

func denied(c *gin.Context, decision service.Decision) {
	c.JSON(http.StatusForbidden, gin.H{
		"error":   decision.Reason.Message(),
		"reason":  decision.Reason,
		"limit":   decision.Limit,
		"current": decision.Current,
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return 0, false
	}
	return id, true
}

// queryInt parses an integer query parameter; malformed values use fallback
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
