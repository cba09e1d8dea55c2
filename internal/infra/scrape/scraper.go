package scrape

import (
	"context"
	"encoding/json"
	"io"

	"go.uber.org/zap"

	"vnmcp/internal/infra/telemetry"
)

type Getter interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Scraper walks list and title pages. A page that fails to fetch or parse is
// logged and skipped; only context cancellation stops a run early.
type Scraper struct {
	getter Getter
	logger *zap.Logger
}

func NewScraper(getter Getter, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{getter: getter, logger: logger.Named("scrape")}
}

func (s *Scraper) Links(ctx context.Context, listURLs []string) ([]Link, error) {
	links := []Link{}
	for _, pageURL := range listURLs {
		body, err := s.getter.Fetch(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return links, ctx.Err()
			}
			s.logFailure(pageURL, err)
			continue
		}
		found, err := ParseList(pageURL, body)
		if err != nil {
			s.logFailure(pageURL, err)
			continue
		}
		s.logger.Info("list page scraped", zap.String("url", pageURL), zap.Int("links", len(found)))
		links = append(links, found...)
	}
	return links, nil
}

func (s *Scraper) Titles(ctx context.Context, titleURLs []string) ([]Title, error) {
	titles := []Title{}
	for _, pageURL := range titleURLs {
		body, err := s.getter.Fetch(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return titles, ctx.Err()
			}
			s.logFailure(pageURL, err)
			continue
		}
		title, err := ParseTitle(pageURL, body)
		if err != nil {
			s.logFailure(pageURL, err)
			continue
		}
		titles = append(titles, title)
	}
	return titles, nil
}

// Crawl scrapes every title linked from the given list pages.
func (s *Scraper) Crawl(ctx context.Context, listURLs []string) ([]Title, error) {
	links, err := s.Links(ctx, listURLs)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(links))
	for _, link := range links {
		urls = append(urls, link.Href)
	}
	return s.Titles(ctx, urls)
}

func (s *Scraper) logFailure(url string, err error) {
	s.logger.Warn("page skipped",
		telemetry.EventField(telemetry.EventScrapeFailure),
		zap.String("url", url),
		zap.Error(err),
	)
}

// WriteCatalog encodes titles as a JSON catalog the catalog loader accepts.
func WriteCatalog(w io.Writer, titles []Title) error {
	if titles == nil {
		titles = []Title{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(titles)
}
