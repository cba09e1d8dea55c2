package main

import (
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vnmcp/internal/domain"
	"vnmcp/internal/infra/scrape"
)

type scrapeOptions struct {
	lists     []string
	titles    []string
	output    string
	userAgent string
	minDelay  time.Duration
	maxDelay  time.Duration
	timeout   time.Duration
}

func newScrapeCmd(opts *cliOptions) *cobra.Command {
	scrapeOpts := scrapeOptions{
		userAgent: domain.DefaultScrapeUserAgent,
		minDelay:  domain.DefaultScrapeMinDelayMs * time.Millisecond,
		maxDelay:  domain.DefaultScrapeMaxDelayMs * time.Millisecond,
		timeout:   domain.DefaultScrapeTimeoutSeconds * time.Second,
	}

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Build a JSON catalog from vndb list and title pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(scrapeOpts.lists) == 0 && len(scrapeOpts.titles) == 0 {
				return errors.New("at least one --list or --title URL is required")
			}

			fetcher := scrape.NewFetcher(
				scrape.WithHTTPClient(&http.Client{Timeout: scrapeOpts.timeout}),
				scrape.WithUserAgent(scrapeOpts.userAgent),
				scrape.WithDelay(scrapeOpts.minDelay, scrapeOpts.maxDelay),
			)
			scraper := scrape.NewScraper(fetcher, opts.logger)

			titles, err := scraper.Crawl(cmd.Context(), scrapeOpts.lists)
			if err != nil {
				return err
			}
			direct, err := scraper.Titles(cmd.Context(), scrapeOpts.titles)
			if err != nil {
				return err
			}
			titles = append(titles, direct...)

			return writeCatalogTo(cmd.OutOrStdout(), scrapeOpts.output, titles)
		},
	}

	cmd.Flags().StringArrayVar(&scrapeOpts.lists, "list", nil, "list page whose td.tc_title links are scraped (repeatable)")
	cmd.Flags().StringArrayVar(&scrapeOpts.titles, "title", nil, "title page to scrape (repeatable)")
	cmd.Flags().StringVarP(&scrapeOpts.output, "output", "o", "", "write the catalog here instead of stdout")
	cmd.Flags().StringVar(&scrapeOpts.userAgent, "user-agent", scrapeOpts.userAgent, "User-Agent header")
	cmd.Flags().DurationVar(&scrapeOpts.minDelay, "min-delay", scrapeOpts.minDelay, "minimum pause between requests")
	cmd.Flags().DurationVar(&scrapeOpts.maxDelay, "max-delay", scrapeOpts.maxDelay, "maximum pause between requests")
	cmd.Flags().DurationVar(&scrapeOpts.timeout, "timeout", scrapeOpts.timeout, "per-request timeout")
	return cmd
}

func writeCatalogTo(stdout io.Writer, path string, titles []scrape.Title) error {
	if path == "" {
		return scrape.WriteCatalog(stdout, titles)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := scrape.WriteCatalog(file, titles); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
