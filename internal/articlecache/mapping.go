package articlecache

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/samvad-hq/pulse-news/internal/domain"
	"github.com/samvad-hq/pulse-news/internal/identity"
)

// Mapping is the id -> article table shared by the listing and detail pages.
// Iteration follows insertion order, which is also the persisted key order.
type Mapping struct {
	order   []string
	records map[string]domain.Article
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{records: make(map[string]domain.Article)}
}

// Len reports the number of stored articles.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Get resolves id.
func (m *Mapping) Get(id string) (domain.Article, bool) {
	if m == nil {
		return domain.Article{}, false
	}
	a, ok := m.records[id]
	return a, ok
}

// IDs returns the stored ids in insertion order.
func (m *Mapping) IDs() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.order...)
}

// Others returns up to limit ids in stored order, skipping exclude.
func (m *Mapping) Others(exclude string, limit int) []string {
	if m == nil || limit <= 0 {
		return nil
	}
	out := make([]string, 0, limit)
	for _, id := range m.order {
		if id == exclude {
			continue
		}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Clone returns an independent copy.
func (m *Mapping) Clone() *Mapping {
	out := NewMapping()
	if m == nil {
		return out
	}
	out.order = append(out.order, m.order...)
	for id, a := range m.records {
		out.records[id] = a
	}
	return out
}

// insert adds a under id unless id is already present.
func (m *Mapping) insert(id string, a domain.Article) bool {
	if _, exists := m.records[id]; exists {
		return false
	}
	m.order = append(m.order, id)
	m.records[id] = a
	return true
}

// MergeResult describes one merge of fetched articles into a mapping.
type MergeResult struct {
	Mapping *Mapping
	// IDs holds the id of every input article, in input order.
	IDs []string
	// Fresh lists ids that were not present before the merge.
	Fresh []string
}

// Merge adds articles to a copy of existing. An id that is already present
// keeps its first record. A nil ident uses the default rolling scheme.
func Merge(existing *Mapping, articles []domain.Article, ident *identity.Identifier) MergeResult {
	if ident == nil {
		ident = identity.Default
	}
	out := existing.Clone()
	res := MergeResult{Mapping: out, IDs: make([]string, 0, len(articles))}
	for _, a := range articles {
		id := ident.ID(a)
		res.IDs = append(res.IDs, id)
		if out.insert(id, a) {
			res.Fresh = append(res.Fresh, id)
		}
	}
	return res
}

// MarshalJSON encodes the mapping as a JSON object keyed by id, in insertion order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if m != nil {
		for i, id := range m.order {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(id)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(m.records[id])
			if err != nil {
				return nil, fmt.Errorf("encode article %s: %w", id, err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keyed by id, keeping key order.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("article mapping must be a JSON object")
	}

	out := NewMapping()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", tok)
		}
		var a domain.Article
		if err := dec.Decode(&a); err != nil {
			return fmt.Errorf("decode article %s: %w", id, err)
		}
		if _, exists := out.records[id]; !exists {
			out.order = append(out.order, id)
		}
		out.records[id] = a
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = *out
	return nil
}
