package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the control API with all routes configured. Read-only
// endpoints are always available; mutating endpoints require the access key
// and are disabled entirely when no key is configured.
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)
	r.GET("/events", handler.GetEvents)
	r.GET("/feeds", handler.ListFeeds)
	r.GET("/feeds/:title/entries", handler.GetFeedEntries)

	if apiAccessKey != "" {
		api := r.Group("/api")
		api.Use(authMiddleware(apiAccessKey))
		{
			api.POST("/feeds", handler.AddFeed)
			api.DELETE("/feeds/:title", handler.RemoveFeed)
			api.POST("/feeds/:title/rename", handler.RenameFeed)
			api.POST("/feeds/:title/active", handler.SetFeedActive)
			api.POST("/feeds/:title/category", handler.SetFeedCategory)
			api.POST("/feeds/:title/sort", handler.SetFeedSort)
			api.POST("/suspend", handler.Suspend)
			api.POST("/resume", handler.Resume)
			api.POST("/refresh", handler.Refresh)
		}
		slog.Info("Control endpoints enabled with authentication")
	} else {
		slog.Info("Control endpoints disabled (API_ACCESS_KEY not set)")
	}

	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"health":  "/health",
			"stats":   "/stats",
			"events":  "/events",
			"feeds":   "/feeds",
			"entries": "/feeds/<title>/entries",
		}

		if apiAccessKey != "" {
			endpoints["add"] = "/api/feeds (POST, requires X-API-Key header)"
			endpoints["remove"] = "/api/feeds/<title> (DELETE, requires X-API-Key header)"
			endpoints["refresh"] = "/api/refresh (POST, requires X-API-Key header)"
		}

		c.JSON(200, gin.H{
			"service":     "FeedDesk",
			"description": "RSS/Atom feed poller with desktop notifications",
			"endpoints":   endpoints,
			"api_status": map[string]interface{}{
				"enabled": apiAccessKey != "",
				"header":  "X-API-Key",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
