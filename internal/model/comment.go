package model

// Comment represents a raw forum comment as supplied by the ingestion collaborator
type Comment struct {
	Forum string `json:"subreddit"` // Originating forum identifier (e.g., "cycling")
	Body  string `json:"body"`      // Raw comment text, empty when the source omitted it
}

// Post identifies a forum post whose comments are collected
type Post struct {
	ID      string  `json:"id"`
	Created float64 `json:"created,omitempty"` // Unix seconds as reported by the listing
}
