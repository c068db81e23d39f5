package articlecache

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/samvad-hq/pulse-news/internal/logger"
	"github.com/samvad-hq/pulse-news/internal/storage"
)

// SaveResult tells the caller which acknowledgement to show.
type SaveResult int

const (
	Saved SaveResult = iota
	AlreadySaved
)

func (r SaveResult) String() string {
	if r == AlreadySaved {
		return "already_saved"
	}
	return "saved"
}

// SavedList is the persisted list of bookmarked ids, most recent first.
type SavedList struct {
	store storage.Store
	log   logger.Logger
	mu    sync.Mutex
}

// NewSavedList builds a SavedList over store.
func NewSavedList(store storage.Store, log logger.Logger) *SavedList {
	return &SavedList{store: store, log: logger.Ensure(log)}
}

// IDs returns the saved ids. Missing or unreadable data yields an empty list.
func (s *SavedList) IDs() []string {
	ids, err := s.ids()
	if err != nil {
		s.log.WarnObj("saved list read failed", "saved_error", map[string]any{
			"key":   SavedKey,
			"error": err.Error(),
		})
		return nil
	}
	return ids
}

// ids is IDs with store failures reported. Absent or corrupt data is treated as empty.
func (s *SavedList) ids() ([]string, error) {
	raw, err := s.store.Get(SavedKey)
	if err != nil {
		return nil, fmt.Errorf("read saved list: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		s.log.WarnObj("saved list corrupt; starting empty", "saved_error", map[string]any{
			"key":   SavedKey,
			"error": err.Error(),
		})
		return nil, nil
	}
	return ids, nil
}

// Save prepends id unless it is already present, in which case nothing is written.
func (s *SavedList) Save(id string) (SaveResult, error) {
	if id == "" {
		return Saved, fmt.Errorf("saved list: empty id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.ids()
	if err != nil {
		return Saved, err
	}
	for _, existing := range ids {
		if existing == id {
			return AlreadySaved, nil
		}
	}

	next := make([]string, 0, len(ids)+1)
	next = append(next, id)
	next = append(next, ids...)

	raw, err := json.Marshal(next)
	if err != nil {
		return Saved, fmt.Errorf("encode saved list: %w", err)
	}
	if err := s.store.Put(SavedKey, raw); err != nil {
		return Saved, fmt.Errorf("persist saved list: %w", err)
	}
	return Saved, nil
}
