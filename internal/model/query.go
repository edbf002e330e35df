package model

// SearchResponse represents a page of public search results
type SearchResponse struct {
	Results []Listing `json:"results"`
	Total   int       `json:"total"`
	Limit   int       `json:"limit"`
	Offset  int       `json:"offset"`
	Sort    SortKey   `json:"sort"`
	HasMore bool      `json:"has_more"`
	Took    int64     `json:"took_ms"` // Response time in milliseconds
}

// LocationInput is the location block of create/update requests
type LocationInput struct {
	Country string `json:"country" binding:"required"`
	Region  string `json:"region"`
	City    string `json:"city" binding:"required"`
	Address string `json:"address"`
}

// CreateListingRequest represents a listing creation request
type CreateListingRequest struct {
	Title            string        `json:"title" binding:"required"`
	Description      string        `json:"description"`
	Price            float64       `json:"price" binding:"gte=0,lt=1000000000000"`
	Currency         string        `json:"currency" binding:"omitempty,len=3,alpha"`
	ListingType      string        `json:"listing_type" binding:"required,oneof=sale rent"`
	PropertyType     string        `json:"property_type" binding:"required,max=50"`
	Location         LocationInput `json:"location"`
	Bedrooms         int           `json:"bedrooms" binding:"gte=0"`
	Bathrooms        int           `json:"bathrooms" binding:"gte=0"`
	AreaSquareMeters float64       `json:"area_sqm" binding:"gt=0,lt=100000000"`
	Features         []string      `json:"features"`
	Images           []string      `json:"images" binding:"omitempty,dive,url"`
	IsActive         *bool         `json:"is_active"`
	IsFeatured       bool          `json:"is_featured"`
}

// UpdateListingRequest represents a partial listing update. Fields such as
// id, owner_id, view_count and created_at are not part of the request and are
// ignored if a client sends them.
type UpdateListingRequest struct {
	Title            *string   `json:"title" binding:"omitempty,min=1"`
	Description      *string   `json:"description"`
	Price            *float64  `json:"price" binding:"omitempty,gte=0,lt=1000000000000"`
	Currency         *string   `json:"currency" binding:"omitempty,len=3,alpha"`
	ListingType      *string   `json:"listing_type" binding:"omitempty,oneof=sale rent"`
	PropertyType     *string   `json:"property_type" binding:"omitempty,min=1,max=50"`
	Country          *string   `json:"country"`
	Region           *string   `json:"region"`
	City             *string   `json:"city"`
	Address          *string   `json:"address"`
	Bedrooms         *int      `json:"bedrooms" binding:"omitempty,gte=0"`
	Bathrooms        *int      `json:"bathrooms" binding:"omitempty,gte=0"`
	AreaSquareMeters *float64  `json:"area_sqm" binding:"omitempty,gt=0,lt=100000000"`
	Features         *[]string `json:"features"`
	Images           *[]string `json:"images"`
	IsActive         *bool     `json:"is_active"`
	IsFeatured       *bool     `json:"is_featured"`
}

// CreateListingResponse is returned when a listing is published
type CreateListingResponse struct {
	Listing *Listing `json:"listing"`
	Limit   int      `json:"plan_limit"`
	Active  int      `json:"active_listings"`
}

// EmbeddingBatchRequest represents a batch embedding update request
type EmbeddingBatchRequest struct {
	Embeddings []EmbeddingItem `json:"embeddings" binding:"required"`
}

// EmbeddingItem represents a single embedding with listing info
type EmbeddingItem struct {
	ListingID int64     `json:"listing_id" binding:"required"`
	Embedding []float32 `json:"embedding" binding:"required"`
}

// EmbeddingBatchResponse represents the response for batch embedding update
type EmbeddingBatchResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}
