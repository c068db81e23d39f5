package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/pulse-news/internal/articlecache"
	"github.com/samvad-hq/pulse-news/internal/config"
	"github.com/samvad-hq/pulse-news/internal/identity"
	"github.com/samvad-hq/pulse-news/internal/loader"
	"github.com/samvad-hq/pulse-news/internal/logger"
	"github.com/samvad-hq/pulse-news/internal/storage"
	"github.com/samvad-hq/pulse-news/internal/web"
	"github.com/samvad-hq/pulse-news/pkg/httpclient"
	"github.com/samvad-hq/pulse-news/pkg/providers"
	"github.com/samvad-hq/pulse-news/pkg/publishers"
)

const shutdownTimeout = 5 * time.Second

// Reader is the news reader runtime. It owns the store, the publishers, the
// listing loader and the HTTP server, plus the optional prefetch loop.
type Reader struct {
	cfg      *config.Config
	store    storage.Store
	fanout   *publishers.Fanout
	loader   *loader.Loader
	server   *web.Server
	log      logger.Logger
	prefetch time.Duration
}

// NewReader builds a reader runtime from config, talking to the configured news API.
func NewReader(ctx context.Context, cfg *config.Config, log logger.Logger) (*Reader, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	fetcher := providers.NewMediastackFetcher(
		httpclient.NewRestyClient(cfg.HTTPTimeout),
		providers.MediastackConfig{
			BaseURL:   cfg.NewsAPIBaseURL,
			AccessKey: cfg.NewsAPIAccessKey,
			Language:  cfg.NewsLanguage,
		},
	)
	return newReader(ctx, cfg, log, fetcher)
}

func newReader(ctx context.Context, cfg *config.Config, log logger.Logger, fetcher providers.Fetcher) (*Reader, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	categoryReg, err := providers.LoadCategories(cfg.CategoriesFile)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	categories := categoryReg.All()
	categoryIDs := make([]string, 0, len(categories))
	for _, c := range categories {
		categoryIDs = append(categoryIDs, c.ID)
	}
	log.InfoObj("categories loaded", "categories_meta", map[string]any{
		"count": len(categoryIDs),
		"ids":   categoryIDs,
	})

	ident, err := identity.New(cfg.IDScheme)
	if err != nil {
		return nil, fmt.Errorf("init identity: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.StoragePath(), storage.Options{})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type": cfg.StorageType,
		"path": cfg.StoragePath(),
	})

	cache := articlecache.New(store, ident, log)
	saved := articlecache.NewSavedList(store, log)

	ld, err := loader.New(loader.Options{
		Fetcher:      fetcher,
		Cache:        cache,
		Categories:   categories,
		Events:       fanout,
		Log:          log,
		Limit:        cfg.PageLimit,
		OlderOffset:  cfg.OlderOffset,
		Concurrency:  cfg.FetchConcurrency,
		EventTimeout: cfg.HTTPTimeout,
	})
	if err != nil {
		return nil, closeAfter(err, store, fanout)
	}

	srv, err := web.New(web.Options{
		AppName:          cfg.AppName,
		StoreType:        cfg.StorageType,
		Cache:            cache,
		Saved:            saved,
		Lister:           ld,
		Events:           fanout,
		Log:              log,
		ListingWait:      cfg.ListingWait,
		SuggestionLimit:  cfg.SuggestionLimit,
		ShareFallbackURL: cfg.ShareFallbackURL,
		EventTimeout:     cfg.HTTPTimeout,
	})
	if err != nil {
		return nil, closeAfter(err, store, fanout)
	}

	return &Reader{
		cfg:      cfg,
		store:    store,
		fanout:   fanout,
		loader:   ld,
		server:   srv,
		log:      log,
		prefetch: cfg.PrefetchInterval,
	}, nil
}

func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabled := publisherReg.Enabled()
	clients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(clients), nil
}

func closeAfter(err error, store storage.Store, fanout *publishers.Fanout) error {
	return errors.Join(err, store.Close(), fanout.Close())
}

// Handler exposes the HTTP routes.
func (r *Reader) Handler() http.Handler {
	return r.server.Handler()
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (r *Reader) Run(ctx context.Context) error {
	if r == nil || r.server == nil {
		return fmt.Errorf("reader is not initialized")
	}
	defer r.close()

	ln, err := net.Listen("tcp", r.cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", r.cfg.HTTPAddr, err)
	}
	return r.serve(ctx, ln)
}

func (r *Reader) serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           r.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	r.log.InfoObj("reader listening", "reader_state", map[string]any{
		"addr":              ln.Addr().String(),
		"publishers_count":  r.fanout.Size(),
		"prefetch_interval": r.prefetch.String(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	if r.prefetch > 0 {
		g.Go(func() error {
			r.prefetchLoop(gctx)
			return nil
		})
	}

	err := g.Wait()
	r.log.InfoObj("reader exiting", "reason", fmt.Sprint(ctx.Err()))
	return err
}

// prefetchLoop warms the cache immediately and then on every tick.
func (r *Reader) prefetchLoop(ctx context.Context) {
	r.warm(ctx)

	ticker := time.NewTicker(r.prefetch)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.warm(ctx)
		}
	}
}

func (r *Reader) warm(ctx context.Context) {
	start := time.Now()
	if err := r.loader.Warm(ctx); err != nil {
		r.log.ErrorObj("prefetch incomplete", "prefetch_error", map[string]any{
			"error":      err.Error(),
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
		return
	}
	r.log.InfoObj("prefetch completed", "prefetch_meta", map[string]any{
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
}

// close releases the publishers and the storage backend, logging failures.
func (r *Reader) close() {
	r.server.Flush()
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publisher close failed", "error", err.Error())
	}
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
