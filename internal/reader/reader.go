package reader

import (
	"context"
	"fmt"
	"time"

	"archfeed/internal/model"

	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// Scraper defines the interface for downloading web pages.
// Tests replace it to keep the network out.
type Scraper interface {
	Scrape(url string, timeout time.Duration) (*readability.Article, error)
}

// DefaultScraper downloads and parses the page with go-readability.
type DefaultScraper struct{}

func (s *DefaultScraper) Scrape(url string, timeout time.Duration) (*readability.Article, error) {
	art, err := readability.FromURL(url, timeout)
	return &art, err
}

// Reader fetches the readable body behind an article's "Read more" link.
type Reader struct {
	scraper Scraper
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewReader(timeout time.Duration, logger *zap.Logger) *Reader {
	return &Reader{
		scraper: &DefaultScraper{},
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

// Read downloads the canonical page of the article. The scraper has no
// context support, so ctx is only checked before the download starts.
func (r *Reader) Read(ctx context.Context, article model.Article) (*model.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	url := article.URL()
	logger := r.logger.With(zap.Int("pageid", article.PageID))
	logger.Info("Downloading", zap.String("url", url))

	parsed, err := r.scraper.Scrape(url, r.timeout)
	if err != nil {
		logger.Error("Scraping failed", zap.Error(err))
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	reading := &model.Reading{
		PageID:    article.PageID,
		URL:       url,
		Title:     parsed.Title,
		Excerpt:   parsed.Excerpt,
		Content:   parsed.Content,
		FetchedAt: r.now(),
	}
	if reading.Title == "" {
		reading.Title = article.Title
	}
	if reading.Excerpt == "" {
		reading.Excerpt = article.Extract
	}

	logger.Info("Reading complete", zap.String("title", reading.Title))
	return reading, nil
}
