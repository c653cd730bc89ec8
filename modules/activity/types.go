package activity

import "context"

// ServiceRecentActivity is the request-reply service exposing the feed.
const ServiceRecentActivity = "recent-activity"

// RecentActivityRequest asks for the newest Limit entries.
type RecentActivityRequest struct {
	Limit int `json:"limit"`
}

// RecentActivityReply carries feed entries, oldest first.
type RecentActivityReply struct {
	Entries []Entry `json:"entries"`
}

// ActivityPort is used by driving adapters to read the feed.
type ActivityPort interface {
	RecentActivity(ctx context.Context, limit int) ([]Entry, error)
}
