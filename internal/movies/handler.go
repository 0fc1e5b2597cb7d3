package movies

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moviehub/internal/logging"
)

type Handler struct {
	Cache *Cache
}

func NewHandler(cache *Cache) *Handler {
	return &Handler{Cache: cache}
}

// RegisterRoutes mounts the search endpoint. rg is expected to be gated.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/movies/search", h.search) // GET /api/movies/search
}

func (h *Handler) search(c *gin.Context) {
	log := logging.FromContext(c.Request.Context())

	q := Query{
		Text:      c.Query("query"),
		SortBy:    SortField(c.Query("sortBy")),
		SortOrder: ParseSortOrder(c.DefaultQuery("sortOrder", string(Ascending))),
	}
	log.Info("search request", "query", q.Text, "sort_by", q.SortBy, "sort_order", q.SortOrder)

	all, err := h.Cache.Get(c.Request.Context())
	if err != nil {
		log.Error("error during movie search", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching or processing movie data"})
		return
	}

	result := Apply(all, q)
	log.Info("search completed", "matched", len(result), "total", len(all))
	c.JSON(http.StatusOK, result)
}
