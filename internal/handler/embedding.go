package handler

import (
	"errors"
	"log"
	"net/http"

	"estate-core/internal/model"
	"estate-core/internal/service"

	"github.com/gin-gonic/gin"
)

// EmbeddingHandler handles embedding-related HTTP requests
type EmbeddingHandler struct {
	listingService *service.ListingService
}

// NewEmbeddingHandler creates a new embedding handler
func NewEmbeddingHandler(listingService *service.ListingService) *EmbeddingHandler {
	return &EmbeddingHandler{
		listingService: listingService,
	}
}

// BatchUpdate handles POST /api/v1/embeddings/batch
func (h *EmbeddingHandler) BatchUpdate(c *gin.Context) {
	var req model.EmbeddingBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if len(req.Embeddings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No embeddings provided"})
		return
	}

	success, errs, err := h.listingService.UpdateEmbeddings(c.Request.Context(), req.Embeddings)
	if errors.Is(err, service.ErrEmbeddingDimensions) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("[%s] Embedding update failed: %v", c.GetString("request_id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": retryLaterMessage})
		return
	}

	response := model.EmbeddingBatchResponse{
		Success: success,
		Failed:  len(req.Embeddings) - success,
		Errors:  errs,
	}

	if len(errs) > 0 {
		c.JSON(http.StatusPartialContent, response)
	} else {
		c.JSON(http.StatusOK, response)
	}
}
