package web

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/samvad-hq/pulse-news/internal/articlecache"
	"github.com/samvad-hq/pulse-news/pkg/publishers"
)

const (
	themeCookie = "pulse_theme"
	themeLight  = "light"
	themeDark   = "dark"
)

type chrome struct {
	AppName    string
	Title      string
	Light      bool
	ThemeLabel string
	ReturnTo   string
	Year       int
}

func (s *Server) chrome(c *gin.Context, title string) chrome {
	light := false
	if v, err := c.Cookie(themeCookie); err == nil && v == themeLight {
		light = true
	}
	label := "Light"
	if light {
		label = "Dark"
	}
	return chrome{
		AppName:    s.opts.AppName,
		Title:      title,
		Light:      light,
		ThemeLabel: label,
		ReturnTo:   c.Request.URL.RequestURI(),
		Year:       s.opts.Now().Year(),
	}
}

type listingPage struct {
	chrome
	Sections []sectionView
	Pending  int
}

func (s *Server) listing(c *gin.Context) {
	page := s.opts.Lister.Load(c.Request.Context(), s.opts.ListingWait)
	c.HTML(http.StatusOK, "listing", listingPage{
		chrome:   s.chrome(c, s.opts.AppName),
		Sections: newSectionViews(page),
		Pending:  page.Pending,
	})
}

type articlePage struct {
	chrome
	Article articleView
}

func (s *Server) article(c *gin.Context) {
	id := c.Query("id")
	mapping := s.opts.Cache.Load()
	a, ok := mapping.Get(id)
	if id == "" || !ok {
		s.notFound(c)
		return
	}

	view := newArticleView(id, a, s.absoluteURL(c, articleHref(id)))
	view.Notice = noticeText(c.Query("notice"))
	for _, sid := range mapping.Others(id, s.opts.SuggestionLimit) {
		if sa, ok := mapping.Get(sid); ok {
			view.Suggestions = append(view.Suggestions, newSuggestionView(sid, sa))
		}
	}

	c.HTML(http.StatusOK, "article", articlePage{
		chrome:  s.chrome(c, view.Title),
		Article: view,
	})
}

func (s *Server) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "notfound", s.chrome(c, "Article not found"))
}

func (s *Server) saveArticle(c *gin.Context) {
	id := c.PostForm("id")
	if _, ok := s.opts.Cache.Lookup(id); !ok {
		s.notFound(c)
		return
	}

	notice := "save_failed"
	res, err := s.opts.Saved.Save(id)
	if err != nil {
		_ = c.Error(err)
		s.log.ErrorObj("save article failed", "saved_error", map[string]any{
			"article_id": id,
			"error":      err.Error(),
		})
	} else {
		notice = res.String()
		if res == articlecache.Saved {
			s.publish(c.Request.Context(), publishers.NewSavedEvent(id))
		}
	}

	c.Redirect(http.StatusSeeOther, articleHref(id)+"&notice="+notice)
}

// publish delivers evt in the background so the response never waits on a sink.
func (s *Server) publish(ctx context.Context, evt publishers.Event) {
	if s.opts.Events == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(ctx, s.opts.EventTimeout)
		defer cancel()
		if _, err := s.opts.Events.Publish(ctx, evt); err != nil {
			s.log.WarnObj("article event delivery failed", "publish_error", map[string]any{
				"event_type": evt.Type,
				"article_id": evt.ArticleID,
				"error":      err.Error(),
			})
		}
	}()
}

func (s *Server) shareArticle(c *gin.Context) {
	id := c.Query("id")
	a, ok := s.opts.Cache.Lookup(id)
	if !ok {
		s.notFound(c)
		return
	}
	share := newShareData(a, s.absoluteURL(c, articleHref(id)))
	c.Redirect(http.StatusFound, fmt.Sprintf(s.opts.ShareFallbackURL, url.QueryEscape(share.URL)))
}

type savedPage struct {
	chrome
	Entries []savedView
}

func (s *Server) saved(c *gin.Context) {
	mapping := s.opts.Cache.Load()
	ids := s.opts.Saved.IDs()
	entries := make([]savedView, 0, len(ids))
	for _, id := range ids {
		entry := savedView{ID: id}
		if a, ok := mapping.Get(id); ok {
			entry.Available = true
			entry.Card = newCardView(id, a)
		}
		entries = append(entries, entry)
	}
	c.HTML(http.StatusOK, "saved", savedPage{
		chrome:  s.chrome(c, "Saved articles"),
		Entries: entries,
	})
}

func (s *Server) toggleTheme(c *gin.Context) {
	next := themeLight
	if v, err := c.Cookie(themeCookie); err == nil && v == themeLight {
		next = themeDark
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(themeCookie, next, 365*24*60*60, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, safeReturn(c.PostForm("return")))
}

// safeReturn keeps redirects on this host.
func safeReturn(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"storage":  s.opts.StoreType,
		"articles": s.opts.Cache.Load().Len(),
		"saved":    len(s.opts.Saved.IDs()),
	})
}

// absoluteURL resolves path against the request's scheme and host.
func (s *Server) absoluteURL(c *gin.Context, path string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := c.GetHeader("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return scheme + "://" + c.Request.Host + path
}
