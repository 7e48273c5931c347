package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/ygg-feed/app/database"
	"github.com/lysyi3m/ygg-feed/app/feed"
	"github.com/lysyi3m/ygg-feed/app/logger"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 200
	defaultLogLimit  = 100
	maxLogLimit      = 1000
)

func NewHandler(itemRepo database.ItemStore, details DetailsSource, logFile, version string) *Handler {
	return &Handler{
		itemRepo: itemRepo,
		details:  details,
		logFile:  logFile,
		version:  version,
	}
}

// GetFeed serves the indexed items for one category, or for every category
// grouped when category=all.
func (h *Handler) GetFeed(c *gin.Context) {
	sort := c.Query("sort")
	limit := parseLimit(c.Query("limit"), defaultFeedLimit, maxFeedLimit)

	rawCategory := c.DefaultQuery("category", "all")
	if rawCategory == "all" {
		h.getAllFeeds(c, sort, limit)
		return
	}

	category := feed.NormalizeCategoryKey(rawCategory)
	items, err := h.itemRepo.GetItems(string(category), sort, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_items", "category", category, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": string(category),
		"label":    category.Label(),
		"count":    len(items),
		"items":    toFeedItems(items),
	})
}

func (h *Handler) getAllFeeds(c *gin.Context, sort string, limit int) {
	groups := make([]gin.H, 0, len(feed.AllCategories()))

	for _, category := range feed.AllCategories() {
		items, err := h.itemRepo.GetItems(string(category), sort, limit)
		if err != nil {
			slog.Error("Database error", "operation", "get_items", "category", category, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load items"})
			return
		}
		groups = append(groups, gin.H{
			"category": string(category),
			"label":    category.Label(),
			"count":    len(items),
			"items":    toFeedItems(items),
		})
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// GetCategories lists the category keys and display labels, the synthetic
// "all" bucket included.
func (h *Handler) GetCategories(c *gin.Context) {
	categories := []gin.H{
		{"key": "all", "label": "Tout"},
	}
	for _, category := range feed.AllCategories() {
		categories = append(categories, gin.H{
			"key":   string(category),
			"label": category.Label(),
		})
	}
	c.JSON(http.StatusOK, categories)
}

// GetDetails looks up rich metadata for a title on demand.
func (h *Handler) GetDetails(c *gin.Context) {
	title := c.Query("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title parameter is required"})
		return
	}

	if h.details == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "details lookup is not configured"})
		return
	}

	// Only the series category maps to a TV search; everything else,
	// emissions included, is looked up as a movie.
	mediaType := "movie"
	if feed.NormalizeCategoryKey(c.Query("category")) == feed.CategorySeries {
		mediaType = "tv"
	}

	year := 0
	if raw := c.Query("year"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			year = n
		}
	}

	details, err := h.details.Lookup(c.Request.Context(), mediaType, title, year)
	if err != nil {
		slog.Error("Details lookup failed", "title", title, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "details lookup failed"})
		return
	}
	if details == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no match found"})
		return
	}

	c.JSON(http.StatusOK, details)
}

// GetLogs returns the newest service log lines, most recent first.
func (h *Handler) GetLogs(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), defaultLogLimit, maxLogLimit)

	lines, err := logger.Tail(h.logFile, limit)
	if err != nil {
		slog.Error("Log read failed", "file", h.logFile, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"lines": lines, "count": len(lines)})
}

func (h *Handler) GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": h.version})
}

func toFeedItems(items []database.Item) []feedItem {
	out := make([]feedItem, 0, len(items))
	for _, item := range items {
		out = append(out, toFeedItem(item))
	}
	return out
}

// parseLimit interprets a limit query value. "all" means unbounded, which
// SQLite expresses as LIMIT -1.
func parseLimit(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	if raw == "all" {
		return -1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}
