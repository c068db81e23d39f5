// Package loader runs the per-category fetches behind the listing page and
// merges their results into the article cache.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/pulse-news/internal/articlecache"
	"github.com/samvad-hq/pulse-news/internal/domain"
	"github.com/samvad-hq/pulse-news/internal/logger"
	"github.com/samvad-hq/pulse-news/pkg/providers"
	"github.com/samvad-hq/pulse-news/pkg/publishers"
)

// EventPublisher receives article.cached events. *publishers.Fanout satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Options configures a Loader. EventTimeout bounds each article.cached delivery.
type Options struct {
	Fetcher      providers.Fetcher
	Cache        *articlecache.Cache
	Categories   []domain.Category
	Events       EventPublisher
	Log          logger.Logger
	Limit        int
	OlderOffset  int
	Concurrency  int
	EventTimeout time.Duration
}

// Loader issues the two fetches (recent and older) per category.
type Loader struct {
	fetcher     providers.Fetcher
	cache       *articlecache.Cache
	categories  []domain.Category
	events      EventPublisher
	log         logger.Logger
	limit       int
	olderOffset int
	concurrency int
	eventTTL    time.Duration
}

// New builds a Loader.
func New(opts Options) (*Loader, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("loader: fetcher is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("loader: cache is required")
	}
	if len(opts.Categories) == 0 {
		return nil, errors.New("loader: no categories configured")
	}
	if opts.Limit <= 0 {
		opts.Limit = 12
	}
	if opts.OlderOffset <= 0 {
		opts.OlderOffset = 30
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.EventTimeout <= 0 {
		opts.EventTimeout = 5 * time.Second
	}
	return &Loader{
		fetcher:     opts.Fetcher,
		cache:       opts.Cache,
		categories:  append([]domain.Category(nil), opts.Categories...),
		events:      opts.Events,
		log:         logger.Ensure(opts.Log),
		limit:       opts.Limit,
		olderOffset: opts.OlderOffset,
		concurrency: opts.Concurrency,
		eventTTL:    opts.EventTimeout,
	}, nil
}

// Categories returns the configured sections.
func (l *Loader) Categories() []domain.Category {
	return append([]domain.Category(nil), l.categories...)
}

// Run tracks one in-flight listing load.
type Run struct {
	mu       sync.Mutex
	sections []Section
	settled  [][]Batch
	pending  [][]Batch
	errs     []error
	left     int
	done     chan struct{}
	drained  chan struct{}
}

type task struct {
	section int
	cat     domain.Category
	offset  int
	older   bool
}

// Start launches every fetch and returns immediately. Fetches run detached
// from ctx's cancellation so they finish and merge even when the caller
// stops waiting.
func (l *Loader) Start(ctx context.Context) *Run {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithoutCancel(ctx)

	run := &Run{
		sections: make([]Section, len(l.categories)),
		settled:  make([][]Batch, len(l.categories)),
		pending:  make([][]Batch, len(l.categories)),
		left:     2 * len(l.categories),
		done:     make(chan struct{}),
		drained:  make(chan struct{}),
	}

	var tasks []task
	for i, cat := range l.categories {
		run.sections[i] = Section{Category: cat}
		run.pending[i] = []Batch{
			{Offset: 0, State: Pending},
			{Offset: l.olderOffset, Older: true, State: Pending},
		}
		tasks = append(tasks,
			task{section: i, cat: cat, offset: 0},
			task{section: i, cat: cat, offset: l.olderOffset, older: true},
		)
	}

	go func() {
		defer close(run.drained)

		// Deliveries run outside the fetch limit so slow sinks never hold a fetch slot.
		var events errgroup.Group
		g := new(errgroup.Group)
		g.SetLimit(l.concurrency)
		for _, t := range tasks {
			g.Go(func() error {
				batch, res := l.fetch(ctx, t)
				run.settle(t, batch)
				events.Go(func() error {
					l.announce(ctx, t.cat.ID, res)
					return nil
				})
				return nil
			})
		}
		_ = g.Wait()
		_ = events.Wait()
	}()

	return run
}

// Load starts a run and waits up to wait for it to settle. A non-positive
// wait blocks until every fetch has finished.
func (l *Loader) Load(ctx context.Context, wait time.Duration) Page {
	return l.Start(ctx).Wait(ctx, wait)
}

// Warm runs a full load, including event delivery, and reports failed batches.
func (l *Loader) Warm(ctx context.Context) error {
	run := l.Start(ctx)
	select {
	case <-run.Drained():
	case <-ctx.Done():
		return ctx.Err()
	}
	return run.Err()
}

// fetch loads one batch and merges it into the cache. The merge result is
// returned for announce, which runs after the batch has settled.
func (l *Loader) fetch(ctx context.Context, t task) (Batch, articlecache.MergeResult) {
	batch := Batch{Offset: t.offset, Older: t.older}

	articles, err := l.fetcher.FetchCategory(ctx, providers.Query{
		Category: t.cat.Param,
		Offset:   t.offset,
		Limit:    l.limit,
	})
	if err != nil {
		l.log.ErrorObj("category fetch failed", "fetch_error", map[string]any{
			"category": t.cat.ID,
			"offset":   t.offset,
			"error":    err.Error(),
		})
		batch.State = Failed
		batch.Err = fmt.Errorf("fetch %s offset %d: %w", t.cat.ID, t.offset, err)
		return batch, articlecache.MergeResult{}
	}

	res, err := l.cache.Absorb(articles)
	if err != nil {
		l.log.ErrorObj("article cache write failed", "cache_error", map[string]any{
			"category": t.cat.ID,
			"offset":   t.offset,
			"error":    err.Error(),
		})
		batch.State = Failed
		batch.Err = fmt.Errorf("cache %s offset %d: %w", t.cat.ID, t.offset, err)
		return batch, articlecache.MergeResult{}
	}

	batch.State = Loaded
	batch.Cards = make([]Card, len(articles))
	for i, a := range articles {
		batch.Cards[i] = Card{ID: res.IDs[i], Article: a}
	}

	l.log.InfoObj("category batch loaded", "fetch_result", map[string]any{
		"category": t.cat.ID,
		"offset":   t.offset,
		"articles": len(articles),
		"fresh":    len(res.Fresh),
	})

	return batch, res
}

func (l *Loader) announce(ctx context.Context, category string, res articlecache.MergeResult) {
	if l.events == nil || len(res.Fresh) == 0 {
		return
	}
	for _, id := range res.Fresh {
		a, _ := res.Mapping.Get(id)
		pubCtx, cancel := context.WithTimeout(ctx, l.eventTTL)
		_, err := l.events.Publish(pubCtx, publishers.NewCachedEvent(category, id, a))
		cancel()
		if err != nil {
			l.log.WarnObj("article event delivery failed", "publish_error", map[string]any{
				"article_id": id,
				"error":      err.Error(),
			})
		}
	}
}

func (r *Run) settle(t task, b Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.settled[t.section] = append(r.settled[t.section], b)
	pending := r.pending[t.section][:0]
	for _, p := range r.pending[t.section] {
		if p.Older != t.older {
			pending = append(pending, p)
		}
	}
	r.pending[t.section] = pending
	if b.Err != nil {
		r.errs = append(r.errs, b.Err)
	}
	r.left--
	if r.left == 0 {
		close(r.done)
	}
}

// Done is closed once every fetch of the run has settled.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Drained is closed after Done once every article.cached event has been
// delivered or has timed out.
func (r *Run) Drained() <-chan struct{} {
	return r.drained
}

// Err joins the errors of failed batches. Only meaningful after Done.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.errs...)
}

// Wait blocks until the run settles, wait elapses or ctx ends, then returns
// a snapshot.
func (r *Run) Wait(ctx context.Context, wait time.Duration) Page {
	if ctx == nil {
		ctx = context.Background()
	}
	var timeout <-chan time.Time
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-r.done:
	case <-timeout:
	case <-ctx.Done():
	}
	return r.Snapshot()
}

// Snapshot returns the current state of every section.
func (r *Run) Snapshot() Page {
	r.mu.Lock()
	defer r.mu.Unlock()

	page := Page{Sections: make([]Section, len(r.sections))}
	for i, s := range r.sections {
		batches := make([]Batch, 0, len(r.settled[i])+len(r.pending[i]))
		batches = append(batches, r.settled[i]...)
		batches = append(batches, r.pending[i]...)
		page.Sections[i] = Section{Category: s.Category, Batches: batches}
		page.Pending += len(r.pending[i])
	}
	return page
}
