package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"diligence/internal/adapters/serper"
	"diligence/internal/adapters/slack"
	"diligence/internal/domain/company"
	"diligence/internal/metrics"
	"diligence/pkg/errors"
	"diligence/pkg/logger"
)

const toolGoogleDoc = "google_doc"

// DocFetcher downloads document text by URL.
type DocFetcher interface {
	FetchDocument(ctx context.Context, url string) (string, error)
}

// PageScraper extracts webpage content by URL.
type PageScraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

// ChannelReader renders channel transcripts.
type ChannelReader interface {
	FormatChannels(ctx context.Context, channels []slack.Channel) string
}

// FetchCache memoizes fetch results across runs.
type FetchCache interface {
	Get(ctx context.Context, tool, request string) (string, error)
	Set(ctx context.Context, tool, request, payload string) error
}

// Collector pulls raw content from every source in a profile and bundles it
// into a single text blob for the organize step. Individual source failures
// degrade to inline error notes so one dead link cannot sink a run.
type Collector struct {
	docs    DocFetcher
	scraper PageScraper
	slack   ChannelReader
	cache   FetchCache
	log     *logger.Logger
}

// NewCollector creates a collector. cache may be nil to disable memoization.
func NewCollector(docs DocFetcher, scraper PageScraper, channels ChannelReader, cache FetchCache) *Collector {
	return &Collector{
		docs:    docs,
		scraper: scraper,
		slack:   channels,
		cache:   cache,
		log:     logger.With("component", "collector"),
	}
}

// Collect fetches all company sources and returns the combined content.
func (c *Collector) Collect(ctx context.Context, profile *company.Profile) string {
	var b strings.Builder

	for _, source := range profile.SourcesOfType(company.SourceGoogleDocs) {
		content, err := c.fetchCached(ctx, toolGoogleDoc, source.Identifier, func() (string, error) {
			return c.docs.FetchDocument(ctx, source.Identifier)
		})
		metrics.RecordSourceFetch(string(company.SourceGoogleDocs), err)
		if err != nil {
			c.log.Warnw("google doc fetch failed", "identifier", source.Identifier, "error", err)
			fmt.Fprintf(&b, "\n\n=== %s ===\nError: Could not fetch document: %v\n", source.Description, err)
			continue
		}
		c.log.Infow("google doc fetched",
			"identifier", source.Identifier,
			"size", humanize.Bytes(uint64(len(content))))
		fmt.Fprintf(&b, "\n\n=== %s ===\n%s\n", source.Description, content)
	}

	for _, source := range profile.SourcesOfType(company.SourceWebpage) {
		content, err := c.fetchCached(ctx, serper.ToolScrape, source.Identifier, func() (string, error) {
			return c.scraper.Scrape(ctx, source.Identifier)
		})
		metrics.RecordSourceFetch(string(company.SourceWebpage), err)
		if err != nil {
			c.log.Warnw("webpage scrape failed", "identifier", source.Identifier, "error", err)
			fmt.Fprintf(&b, "\n\n=== %s ===\nError: Could not fetch webpage: %v\n", source.Description, err)
			continue
		}
		fmt.Fprintf(&b, "\n\n=== %s ===\n%s\n", source.Description, content)
	}

	if slackSources := profile.SourcesOfType(company.SourceSlack); len(slackSources) > 0 {
		channels := make([]slack.Channel, 0, len(slackSources))
		for _, source := range slackSources {
			channels = append(channels, slack.Channel{
				ID:          source.Identifier,
				Name:        source.Identifier,
				Description: source.Description,
			})
		}
		b.WriteString(c.slack.FormatChannels(ctx, channels))
	}

	return strings.TrimSpace(b.String())
}

func (c *Collector) fetchCached(ctx context.Context, tool, request string, fetch func() (string, error)) (string, error) {
	if c.cache != nil {
		if payload, err := c.cache.Get(ctx, tool, request); err == nil {
			metrics.RecordCacheHit(tool, true)
			return payload, nil
		} else if !errors.Is(err, errors.ErrNotFound) {
			c.log.Warnw("cache lookup failed", "tool", tool, "error", err)
		}
		metrics.RecordCacheHit(tool, false)
	}

	payload, err := fetch()
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, tool, request, payload); err != nil {
			c.log.Warnw("cache store failed", "tool", tool, "error", err)
		}
	}

	return payload, nil
}
