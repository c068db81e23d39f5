package providers

import (
	"context"

	"github.com/samvad-hq/pulse-news/internal/domain"
	"github.com/samvad-hq/pulse-news/pkg/httpclient"
)

// Query selects one page of a news category.
type Query struct {
	Category string
	Offset   int
	Limit    int
}

// Fetcher retrieves raw article records for a category page.
type Fetcher interface {
	ID() string
	FetchCategory(ctx context.Context, q Query) ([]domain.Article, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within providers.
type HTTPClient = httpclient.Client
