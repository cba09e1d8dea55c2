package scrape

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"vnmcp/internal/domain"
)

// Fetcher issues paced GET requests. Consecutive requests are separated by
// at least the minimum delay plus a random jitter up to the maximum delay.
type Fetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	minDelay  time.Duration
	maxDelay  time.Duration
	jitter    func(time.Duration) time.Duration
}

type FetcherOption func(*Fetcher)

func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

func WithUserAgent(userAgent string) FetcherOption {
	return func(f *Fetcher) {
		if userAgent != "" {
			f.userAgent = userAgent
		}
	}
}

// WithDelay sets the pause range between requests. A zero maximum disables pacing.
func WithDelay(minDelay, maxDelay time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if minDelay < 0 {
			minDelay = 0
		}
		if maxDelay < minDelay {
			maxDelay = minDelay
		}
		f.minDelay = minDelay
		f.maxDelay = maxDelay
	}
}

func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: domain.DefaultScrapeTimeoutSeconds * time.Second},
		userAgent: domain.DefaultScrapeUserAgent,
		minDelay:  domain.DefaultScrapeMinDelayMs * time.Millisecond,
		maxDelay:  domain.DefaultScrapeMaxDelayMs * time.Millisecond,
		jitter: func(span time.Duration) time.Duration {
			if span <= 0 {
				return 0
			}
			return rand.N(span)
		},
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.minDelay > 0 {
		f.limiter = rate.NewLimiter(rate.Every(f.minDelay), 1)
	} else {
		f.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return f
}

// Fetch waits for its turn and returns the response body.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

func (f *Fetcher) wait(ctx context.Context) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}
	extra := f.jitter(f.maxDelay - f.minDelay)
	if extra <= 0 {
		return nil
	}
	timer := time.NewTimer(extra)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
