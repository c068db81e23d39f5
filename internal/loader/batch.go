package loader

import (
	"github.com/samvad-hq/pulse-news/internal/domain"
)

// State is the lifecycle of one category/offset fetch.
type State int

const (
	Pending State = iota
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Card is one article of a batch, addressed by its cache id.
type Card struct {
	ID      string
	Article domain.Article
}

// Batch is the outcome of one fetch for a section.
type Batch struct {
	Offset int
	Older  bool
	State  State
	Cards  []Card
	Err    error
}

// Note is the status line shown in place of the batch's cards.
func (b Batch) Note() string {
	switch b.State {
	case Pending:
		if b.Older {
			return "Loading older..."
		}
		return "Loading..."
	case Failed:
		return "Failed to load."
	default:
		return ""
	}
}

// Section groups the batches of one category. Settled batches come first in
// the order they completed; pending ones follow in request order.
type Section struct {
	Category domain.Category
	Batches  []Batch
}

// Cards flattens the cards of every loaded batch.
func (s Section) Cards() []Card {
	var out []Card
	for _, b := range s.Batches {
		out = append(out, b.Cards...)
	}
	return out
}

// Page is a snapshot of a listing load.
type Page struct {
	Sections []Section
	Pending  int
}
