// Package articlecache persists the article mapping and the saved-id list.
package articlecache

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/samvad-hq/pulse-news/internal/domain"
	"github.com/samvad-hq/pulse-news/internal/identity"
	"github.com/samvad-hq/pulse-news/internal/logger"
	"github.com/samvad-hq/pulse-news/internal/storage"
)

// Keys under which the two collections live in the store.
const (
	ArticlesKey = "pulse_articles"
	SavedKey    = "pulse_saved"
)

// Cache reads and writes the persisted article mapping.
type Cache struct {
	store storage.Store
	ident *identity.Identifier
	log   logger.Logger

	// mu serializes load-merge-persist so concurrent fetches keep each other's keys.
	mu sync.Mutex
}

// New builds a Cache over store.
func New(store storage.Store, ident *identity.Identifier, log logger.Logger) *Cache {
	if ident == nil {
		ident = identity.Default
	}
	return &Cache{store: store, ident: ident, log: logger.Ensure(log)}
}

// Load returns the persisted mapping. Missing or unreadable data yields an empty mapping.
func (c *Cache) Load() *Mapping {
	m, err := c.load()
	if err != nil {
		c.log.WarnObj("article mapping read failed", "cache_error", map[string]any{
			"key":   ArticlesKey,
			"error": err.Error(),
		})
		return NewMapping()
	}
	return m
}

// load reports store failures so writers never persist over data they could not read.
// Absent or corrupt data is treated as empty.
func (c *Cache) load() (*Mapping, error) {
	raw, err := c.store.Get(ArticlesKey)
	if err != nil {
		return nil, fmt.Errorf("read article mapping: %w", err)
	}
	if len(raw) == 0 {
		return NewMapping(), nil
	}

	m := NewMapping()
	if err := json.Unmarshal(raw, m); err != nil {
		c.log.WarnObj("article mapping corrupt; starting empty", "cache_error", map[string]any{
			"key":   ArticlesKey,
			"error": err.Error(),
		})
		return NewMapping(), nil
	}
	return m, nil
}

// Persist writes m under the mapping key.
func (c *Cache) Persist(m *Mapping) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode article mapping: %w", err)
	}
	if err := c.store.Put(ArticlesKey, raw); err != nil {
		return fmt.Errorf("persist article mapping: %w", err)
	}
	return nil
}

// Absorb merges articles into the persisted mapping and writes it back when
// anything new was added.
func (c *Cache) Absorb(articles []domain.Article) (MergeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.load()
	if err != nil {
		return MergeResult{}, err
	}
	res := Merge(current, articles, c.ident)
	if len(res.Fresh) == 0 {
		return res, nil
	}
	if err := c.Persist(res.Mapping); err != nil {
		return res, err
	}
	c.log.DebugObj("article mapping updated", "cache_merge", map[string]any{
		"fetched": len(articles),
		"fresh":   len(res.Fresh),
		"total":   res.Mapping.Len(),
	})
	return res, nil
}

// Lookup resolves a single id against the persisted mapping.
func (c *Cache) Lookup(id string) (domain.Article, bool) {
	if id == "" {
		return domain.Article{}, false
	}
	return c.Load().Get(id)
}
