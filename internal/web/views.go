package web

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samvad-hq/pulse-news/internal/domain"
	"github.com/samvad-hq/pulse-news/internal/loader"
)

const (
	cardDescriptionLimit = 140
	suggestionTitleLimit = 70

	untitled         = "Untitled"
	noDescription    = "No description available."
	defaultShareName = "PulseNews article"
	publishedLayout  = "Jan 2, 2006, 3:04 PM"
)

// truncate shortens s to at most n characters, ending with an ellipsis when cut.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

func titleOrUntitled(title string) string {
	if strings.TrimSpace(title) == "" {
		return untitled
	}
	return title
}

func articleHref(id string) string {
	return "/article?id=" + url.QueryEscape(id)
}

var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// formatPublished renders the API timestamp for humans, falling back to the
// raw string when it does not parse.
func formatPublished(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(publishedLayout)
		}
	}
	return raw
}

// metaLine joins author, publish time and source the way the detail header shows them.
func metaLine(a domain.Article) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Author, formatPublished(a.PublishedAt), a.Source} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " • ")
}

type cardView struct {
	ID          string
	Href        string
	Title       string
	Description string
	Image       string
	Source      string
}

func newCardView(id string, a domain.Article) cardView {
	return cardView{
		ID:          id,
		Href:        articleHref(id),
		Title:       titleOrUntitled(a.Title),
		Description: truncate(a.Description, cardDescriptionLimit),
		Image:       a.Image,
		Source:      a.Source,
	}
}

type batchView struct {
	Note  string
	State string
	Cards []cardView
}

type sectionView struct {
	ID      string
	Title   string
	Batches []batchView
}

func newSectionViews(page loader.Page) []sectionView {
	out := make([]sectionView, 0, len(page.Sections))
	for _, s := range page.Sections {
		sv := sectionView{ID: s.Category.ID, Title: s.Category.Title}
		for _, b := range s.Batches {
			bv := batchView{Note: b.Note(), State: b.State.String()}
			for _, c := range b.Cards {
				bv.Cards = append(bv.Cards, newCardView(c.ID, c.Article))
			}
			sv.Batches = append(sv.Batches, bv)
		}
		out = append(out, sv)
	}
	return out
}

type shareData struct {
	Title string
	Text  string
	URL   string
}

// newShareData falls back to the detail page's own URL when the article has none.
func newShareData(a domain.Article, pageURL string) shareData {
	sd := shareData{Title: a.Title, Text: a.Description, URL: a.URL}
	if strings.TrimSpace(sd.Title) == "" {
		sd.Title = defaultShareName
	}
	if strings.TrimSpace(sd.URL) == "" {
		sd.URL = pageURL
	}
	return sd
}

type suggestionView struct {
	Href  string
	Title string
	Image string
}

type articleView struct {
	ID          string
	Title       string
	Meta        string
	Image       string
	Description string
	URL         string
	Share       shareData
	ShareHref   string
	Notice      string
	Suggestions []suggestionView
}

func newArticleView(id string, a domain.Article, pageURL string) articleView {
	desc := a.Description
	if strings.TrimSpace(desc) == "" {
		desc = noDescription
	}
	return articleView{
		ID:          id,
		Title:       titleOrUntitled(a.Title),
		Meta:        metaLine(a),
		Image:       a.Image,
		Description: desc,
		URL:         a.URL,
		Share:       newShareData(a, pageURL),
		ShareHref:   "/article/share?id=" + url.QueryEscape(id),
	}
}

func newSuggestionView(id string, a domain.Article) suggestionView {
	return suggestionView{
		Href:  articleHref(id),
		Title: truncate(titleOrUntitled(a.Title), suggestionTitleLimit),
		Image: a.Image,
	}
}

type savedView struct {
	ID        string
	Available bool
	Card      cardView
}

func noticeText(code string) string {
	switch code {
	case "saved":
		return "Saved for later"
	case "already_saved":
		return "Already saved"
	case "save_failed":
		return "Could not save this article."
	default:
		return ""
	}
}
