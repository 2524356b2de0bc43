package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"archfeed/internal/model"

	"go.uber.org/zap"
)

// Preloader warms a thumbnail so it can be shown without a decode delay.
type Preloader interface {
	Preload(ctx context.Context, url string) error
}

// HTTPPreloader downloads the image into the transport's connection pool
// and discards it.
type HTTPPreloader struct {
	client *http.Client
}

func NewHTTPPreloader(timeout time.Duration) *HTTPPreloader {
	return &HTTPPreloader{client: &http.Client{Timeout: timeout}}
}

func (p *HTTPPreloader) Preload(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("image returned %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("unexpected content type %q", ct)
	}
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}

type nopPreloader struct{}

func (nopPreloader) Preload(context.Context, string) error { return nil }

// settle preloads every thumbnail of batch concurrently and returns once
// each one has either loaded or failed. Failures are ignored.
func (s *Source) settle(ctx context.Context, batch []model.Article) {
	var wg sync.WaitGroup
	for _, a := range batch {
		if !a.HasThumbnail() {
			continue
		}
		wg.Add(1)
		go func(a model.Article) {
			defer wg.Done()
			if err := s.preloader.Preload(ctx, a.Thumbnail.Source); err != nil {
				s.logger.Debug("Thumbnail preload failed",
					zap.Int("pageid", a.PageID),
					zap.String("src", a.Thumbnail.Source),
					zap.Error(err))
			}
		}(a)
	}
	wg.Wait()
}
