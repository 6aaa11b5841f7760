// Package fetcher retrieves candidate website text for scoring.
package fetcher

import "context"

// Fetcher defines the interface for retrieving page text.
type Fetcher interface {
	// FetchText fetches the URL and returns the visible page text with
	// markup stripped.
	FetchText(ctx context.Context, url string) (string, error)
}
