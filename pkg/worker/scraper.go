package worker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxScrapeBody = 10 << 20 // 10 MiB

// Scraper fetches one web page and returns its raw body plus the content type
// the server declared.
type Scraper interface {
	FetchPage(ctx context.Context, url string) (body []byte, contentType string, err error)
}

type httpScraper struct {
	client *http.Client
}

func NewHTTPScraper(timeout time.Duration) Scraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpScraper{
		client: &http.Client{Timeout: timeout},
	}
}

func (s *httpScraper) FetchPage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", "hebelki-knowledge-bot/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScrapeBody))
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}
