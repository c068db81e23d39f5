// Package web serves the listing, detail and saved pages.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/samvad-hq/pulse-news/internal/articlecache"
	"github.com/samvad-hq/pulse-news/internal/loader"
	"github.com/samvad-hq/pulse-news/internal/logger"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Lister produces the listing page snapshot.
type Lister interface {
	Load(ctx context.Context, wait time.Duration) loader.Page
}

// Options wires the server's collaborators.
type Options struct {
	AppName          string
	StoreType        string
	Cache            *articlecache.Cache
	Saved            *articlecache.SavedList
	Lister           Lister
	Events           loader.EventPublisher
	Log              logger.Logger
	ListingWait      time.Duration
	SuggestionLimit  int
	ShareFallbackURL string
	EventTimeout     time.Duration
	Now              func() time.Time
}

// Server holds the gin engine and page dependencies.
type Server struct {
	engine *gin.Engine
	opts   Options
	log    logger.Logger

	// inflight counts event deliveries started by handlers.
	inflight sync.WaitGroup
}

// New builds the router with all routes registered.
func New(opts Options) (*Server, error) {
	if opts.Cache == nil || opts.Saved == nil {
		return nil, errors.New("web: cache and saved list are required")
	}
	if opts.Lister == nil {
		return nil, errors.New("web: lister is required")
	}
	if opts.AppName == "" {
		opts.AppName = "PulseNews"
	}
	if opts.SuggestionLimit < 0 {
		opts.SuggestionLimit = 0
	}
	if !strings.Contains(opts.ShareFallbackURL, "%s") {
		return nil, fmt.Errorf("web: share fallback url %q lacks a %%s placeholder", opts.ShareFallbackURL)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.EventTimeout <= 0 {
		opts.EventTimeout = 5 * time.Second
	}

	tmpl, err := template.New("pages").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(accessLog(opts.Log))
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(static))

	s := &Server{engine: r, opts: opts, log: logger.Ensure(opts.Log)}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/", s.listing)
	r.GET("/article", s.article)
	r.POST("/article/save", s.saveArticle)
	r.GET("/article/share", s.shareArticle)
	r.GET("/saved", s.saved)
	r.POST("/theme", s.toggleTheme)
	r.GET("/health", s.health)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Flush waits for event deliveries started by handlers to finish.
func (s *Server) Flush() {
	s.inflight.Wait()
}
