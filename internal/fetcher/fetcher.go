package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"crouswatch/internal/domain"
)

// Fetcher retrieves one page of search results at a time. It applies a
// bounded request timeout so a stalled request cannot block the scan loop.
// Retry policy belongs to the monitor loop, not here.
type Fetcher struct {
	client    *http.Client
	searchURL string
	headers   *headerSet
	logger    *zap.Logger
}

func New(searchURL string, timeout time.Duration, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		searchURL: searchURL,
		headers:   newHeaderSet(),
		logger:    logger,
	}
}

// PageURL returns the request URL for a 1-based page index. The first page
// is the bare search endpoint; later pages add the page query parameter.
func (f *Fetcher) PageURL(page int) string {
	if page <= 1 {
		return f.searchURL
	}
	return fmt.Sprintf("%s?page=%d", f.searchURL, page)
}

// FetchPage returns the raw HTML of one search-results page. Transport
// failures surface as *domain.NetworkError, non-2xx responses as
// *domain.HTTPError.
func (f *Fetcher) FetchPage(ctx context.Context, page int) (string, error) {
	url := f.PageURL(page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &domain.NetworkError{URL: url, Err: err}
	}
	f.headers.apply(req)

	f.logger.Debug("fetching search results page", zap.Int("page", page), zap.String("url", url))

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &domain.NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &domain.HTTPError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.NetworkError{URL: url, Err: err}
	}
	return string(body), nil
}
