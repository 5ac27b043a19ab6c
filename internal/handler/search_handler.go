package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/diegopaiva1/file-search-poc/internal/service"
	"github.com/diegopaiva1/file-search-poc/pkg/log"

	"github.com/gin-gonic/gin"
)

// SearchHandler serves the full-text search API.
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search handles GET /files/search. `query` is required; `limit` defaults
// to 10 (max 100) and `offset` to 0. Out-of-range values are rejected, not
// clamped.
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("query")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset parameter"})
		return
	}

	result, err := h.searchService.Search(c.Request.Context(), query, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyQuery),
			errors.Is(err, service.ErrInvalidLimit),
			errors.Is(err, service.ErrInvalidOffset):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Error("search failed", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		}
		return
	}

	log.Infof("search for %q returned %d of %d matches", query, len(result.Files), result.Total)
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": result})
}
