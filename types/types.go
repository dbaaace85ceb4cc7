// Package types defines the data structures used in the URL shortener service.
package types

import "time"

// URLResponse represents the response body of a successful shorten request.
type URLResponse struct {
	ShortURL string `json:"short_url"`
	Code     string `json:"code"`
}

// URLData represents a stored mapping from a short code to the submitted URL.
type URLData struct {
	ShortURL    string
	OriginalURL string
	CreatedAt   time.Time
}

// URLRequest represents the request body of a shorten request.
type URLRequest struct {
	URL string `json:"url" validate:"required"`
}

// StatsResponse represents the body returned by the admin stats endpoint.
type StatsResponse struct {
	Entries int `json:"entries"`
}
