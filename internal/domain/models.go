package domain

// Domain contains core models shared across packages.

// Article is a news record as returned by the news API. It is stored verbatim
// and never mutated once cached; PublishedAt keeps the raw API string.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Source      string `json:"source,omitempty"`
	Author      string `json:"author,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	URL         string `json:"url,omitempty"`
	Category    string `json:"category,omitempty"`
	Language    string `json:"language,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Category is a listing section backed by one news API category parameter.
type Category struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Param string `json:"param" yaml:"param"`
}
