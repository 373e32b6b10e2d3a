package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"paperbase/internal/app"
	"paperbase/internal/transport/http/response"
)

type SearchHandler struct {
	searchService *app.SearchService
}

func NewSearchHandler(searchService *app.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search handles GET /search?q=...&tags=a,b&limit=20. Tags narrow candidates
// to documents carrying all of them; an empty hit list is a normal response.
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")

	var tagNames []string
	if raw := strings.TrimSpace(c.Query("tags")); raw != "" {
		tagNames = strings.Split(raw, ",")
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	hits, err := h.searchService.Search(c.Request.Context(), app.SearchInput{
		Query:    query,
		TagNames: tagNames,
		Limit:    limit,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "search failed")
		}
		return
	}

	response.OK(c, gin.H{"hits": hits, "count": len(hits)})
}
