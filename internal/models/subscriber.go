package models

import "time"

// Subscriber is a digest recipient with delivery preferences.
// Categories is an allow-list; empty means all categories.
type Subscriber struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Active       bool      `json:"active"`
	Categories   []string  `json:"categories"`
	MinRelevance int       `json:"min_relevance"`
	CreatedAt    time.Time `json:"created_at"`
}
