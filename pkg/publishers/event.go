package publishers

import (
	"time"

	"github.com/samvad-hq/pulse-news/internal/domain"
)

// Event types emitted by the reader.
const (
	EventArticleCached = "article.cached"
	EventArticleSaved  = "article.saved"
)

// Event represents the payload published downstream.
type Event struct {
	Type       string          `json:"type"`
	ArticleID  string          `json:"article_id"`
	Category   string          `json:"category,omitempty"`
	Article    *domain.Article `json:"article,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewCachedEvent is emitted when a merge inserts a fresh id.
func NewCachedEvent(category, id string, article domain.Article) Event {
	return Event{
		Type:       EventArticleCached,
		ArticleID:  id,
		Category:   category,
		Article:    &article,
		OccurredAt: time.Now().UTC(),
	}
}

// NewSavedEvent is emitted when an id is newly bookmarked.
func NewSavedEvent(id string) Event {
	return Event{
		Type:       EventArticleSaved,
		ArticleID:  id,
		OccurredAt: time.Now().UTC(),
	}
}

func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_type": e.Type,
		"article_id": e.ArticleID,
	}
}
