package api

import (
	"github.com/feeddesk/feeddesk/app/database"
	"github.com/feeddesk/feeddesk/app/scheduler"
)

type Handler struct {
	feedRepo  database.FeedRepository
	entryRepo database.EntryRepository
	poller    scheduler.PollerInterface
	events    *EventLog
}

type addFeedRequest struct {
	URL      string `json:"url" binding:"required"`
	Category string `json:"category"`
}

type renameFeedRequest struct {
	Title string `json:"title" binding:"required"`
}

type activeRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type categoryRequest struct {
	Category string `json:"category"`
}

type sortRequest struct {
	Reversed *bool `json:"reversed" binding:"required"`
}
