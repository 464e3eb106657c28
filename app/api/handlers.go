package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/feeddesk/feeddesk/app/database"
	"github.com/feeddesk/feeddesk/app/scheduler"
	"github.com/gin-gonic/gin"
)

func NewHandler(feedRepo database.FeedRepository, entryRepo database.EntryRepository,
	poller scheduler.PollerInterface, events *EventLog) *Handler {
	return &Handler{
		feedRepo:  feedRepo,
		entryRepo: entryRepo,
		poller:    poller,
		events:    events,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetCount(); err == nil {
		health["feeds"] = feedCount
	}
	if activeCount, err := h.feedRepo.GetActiveCount(); err == nil {
		health["active_feeds"] = activeCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.poller.Stats()
	if err != nil {
		slog.Error("Failed to collect poller stats", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	out := map[string]interface{}{
		"state":         stats.State,
		"offline":       stats.Offline,
		"in_flight":     stats.InFlight,
		"total_rounds":  stats.TotalRounds,
		"total_updates": stats.TotalUpdates,
		"total_errors":  stats.TotalErrors,
	}
	if stats.NextRoundAt != nil {
		out["next_round_at"] = stats.NextRoundAt.Format(time.RFC3339)
	}
	if stats.LastRoundAt != nil {
		out["last_round_at"] = stats.LastRoundAt.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetEvents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": h.events.Recent()})
}

func (h *Handler) ListFeeds(c *gin.Context) {
	feeds, err := h.feedRepo.GetAll()
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	category := c.Query("category")

	out := make([]map[string]interface{}, 0, len(feeds))
	for _, feed := range feeds {
		if category != "" && feed.Category != category {
			continue
		}

		info := map[string]interface{}{
			"title":         feed.Title,
			"url":           feed.URL,
			"active":        feed.Active,
			"category":      feed.Category,
			"sort_reversed": feed.SortReversed,
			"latest_link":   feed.LatestLink,
		}
		if !feed.LastUpdated.IsZero() {
			info["last_updated"] = feed.LastUpdated.Format(time.RFC3339)
		}
		if count, err := h.entryRepo.GetCount(feed.ID); err == nil {
			info["entry_count"] = count
		}
		out = append(out, info)
	}

	c.JSON(http.StatusOK, gin.H{"feeds": out})
}

func (h *Handler) GetFeedEntries(c *gin.Context) {
	title := c.Param("title")

	feed, err := h.feedRepo.GetByTitle(title)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", title, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if feed == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "feed not found"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	entries, err := h.entryRepo.GetEntries(feed.ID, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_entries", "feed", title, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	out := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		item := map[string]interface{}{
			"title":   entry.Title,
			"summary": entry.Summary,
			"link":    entry.Link,
		}
		if !entry.PublishedAt.IsZero() {
			item["published_at"] = entry.PublishedAt.Format(time.RFC3339)
		}
		out = append(out, item)
	}

	c.JSON(http.StatusOK, gin.H{
		"title":         feed.Title,
		"sort_reversed": feed.SortReversed,
		"entries":       out,
	})
}

func (h *Handler) AddFeed(c *gin.Context) {
	var req addFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.poller.AddFeed(req.URL, req.Category); err != nil {
		if errors.Is(err, scheduler.ErrSuspended) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Failed to dispatch feed addition", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// The record is created only once the first fetch succeeds.
	c.JSON(http.StatusAccepted, gin.H{"url": req.URL})
}

func (h *Handler) RemoveFeed(c *gin.Context) {
	title := c.Param("title")

	if err := h.poller.RemoveFeed(title); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) RenameFeed(c *gin.Context) {
	title := c.Param("title")

	var req renameFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	finalTitle, err := h.poller.RenameFeed(title, req.Title)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"title": finalTitle})
}

func (h *Handler) SetFeedActive(c *gin.Context) {
	title := c.Param("title")

	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.poller.SetFeedActive(title, *req.Active); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) SetFeedCategory(c *gin.Context) {
	title := c.Param("title")

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.poller.SetFeedCategory(title, req.Category); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) SetFeedSort(c *gin.Context) {
	title := c.Param("title")

	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.poller.SetFeedSortReversed(title, *req.Reversed); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Suspend(c *gin.Context) {
	if err := h.poller.Suspend(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Resume(c *gin.Context) {
	if err := h.poller.Resume(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Refresh(c *gin.Context) {
	if err := h.poller.RefreshNow(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
