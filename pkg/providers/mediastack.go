package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samvad-hq/pulse-news/internal/domain"
	"github.com/samvad-hq/pulse-news/pkg/httpclient"
)

const (
	MediastackID = "mediastack"

	defaultMediastackBaseURL = "https://api.mediastack.com/v1"
	defaultLanguage          = "en"
)

// ErrMissingAccessKey is returned before any request when no API key is configured.
var ErrMissingAccessKey = errors.New("news api access key is not configured")

// MediastackConfig configures the mediastack fetcher.
type MediastackConfig struct {
	BaseURL   string
	AccessKey string
	Language  string
}

type mediastackFetcher struct {
	client    HTTPClient
	endpoint  string
	accessKey string
	language  string
}

// mediastackResponse is the envelope returned by /news. Error is set instead
// of Data when the API rejects the request.
type mediastackResponse struct {
	Data  []domain.Article `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// DefaultHTTPClient returns the resty-backed client used by fetchers.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }

// NewMediastackFetcher builds a Fetcher for the mediastack /news endpoint.
func NewMediastackFetcher(client HTTPClient, cfg MediastackConfig) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultMediastackBaseURL
	}
	lang := strings.TrimSpace(cfg.Language)
	if lang == "" {
		lang = defaultLanguage
	}
	return &mediastackFetcher{
		client:    client,
		endpoint:  base + "/news",
		accessKey: strings.TrimSpace(cfg.AccessKey),
		language:  lang,
	}
}

func (f *mediastackFetcher) ID() string {
	return MediastackID
}

// FetchCategory issues a single request; it never retries.
func (f *mediastackFetcher) FetchCategory(ctx context.Context, q Query) ([]domain.Article, error) {
	if f.accessKey == "" {
		return nil, ErrMissingAccessKey
	}
	if strings.TrimSpace(q.Category) == "" {
		return nil, fmt.Errorf("category is empty")
	}

	params := url.Values{}
	params.Set("access_key", f.accessKey)
	params.Set("languages", f.language)
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))
	params.Set("categories", q.Category)

	resp, err := f.client.Get(ctx, f.endpoint, params, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("fetch %s offset %d: %w", q.Category, q.Offset, redactURL(err, f.endpoint))
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s offset %d returned status %d body: %s", q.Category, q.Offset, resp.StatusCode(), responseSnippet(body))
	}

	var parsed mediastackResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode %s offset %d: %w", q.Category, q.Offset, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("news api error %s: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if parsed.Data == nil {
		return []domain.Article{}, nil
	}
	return parsed.Data, nil
}

// redactURL strips the query string (and with it the access key) from transport errors.
func redactURL(err error, endpoint string) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = endpoint
	}
	return err
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
