package service

import (
	"context"

	"FxBias/internal/domain/models"
)

// ContentFetcher retrieves the readable text of a web page.
// Any failure yields an empty string; it never returns an error.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) string
}

// Reasoner submits a prompt to the reasoning service and returns the raw reply text.
// Empty or blocked replies are errors.
type Reasoner interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SeriesFetcher returns a daily market series ordered oldest first.
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, key models.SeriesKey) ([]models.DataPoint, error)
}
