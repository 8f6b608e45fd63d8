package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yazgan/pressgen/internal/cache"
	"github.com/yazgan/pressgen/internal/logger"
	"github.com/yazgan/pressgen/internal/models"
	"github.com/yazgan/pressgen/internal/utils"
)

// Processor ties fetch, parse, and dedupe together. Items that survive
// all three stages are ready for article generation.
type Processor struct {
	fetcher *Fetcher
	parser  *Parser
	cache   cache.ProcessedCache
}

func NewProcessor(processed cache.ProcessedCache) *Processor {
	return &Processor{
		fetcher: NewFetcher(),
		parser:  NewParser(),
		cache:   processed,
	}
}

// ProcessFeeds fetches the given URLs and returns the valid, not yet
// processed items.
func (p *Processor) ProcessFeeds(ctx context.Context, feedURLs []string) ([]models.FeedItem, error) {
	log := logger.Get()
	start := time.Now()
	log.Info().Strs("feed_urls", feedURLs).Msg("processing feeds")

	items, err := p.fetcher.FetchMultipleFeeds(ctx, feedURLs)
	if err != nil {
		return nil, fmt.Errorf("error fetching feeds: %w", err)
	}

	validItems, errs := p.parser.ProcessFeedItems(ctx, items)
	if len(errs) > 0 {
		log.Warn().
			Errs("validation_errors", errs).
			Msg("some feed items failed validation")
	}

	uniqueItems, err := p.filterDuplicates(ctx, validItems)
	if err != nil {
		return nil, fmt.Errorf("error filtering duplicates: %w", err)
	}

	log.Info().
		Int("fetched", len(items)).
		Int("valid", len(validItems)).
		Int("unique", len(uniqueItems)).
		Dur("duration", time.Since(start)).
		Msg("finished processing feeds")

	return uniqueItems, nil
}

// filterDuplicates drops items whose source URL hash is already in the
// processed cache. Cache lookup errors skip the item rather than fail
// the whole batch.
func (p *Processor) filterDuplicates(ctx context.Context, items []models.FeedItem) ([]models.FeedItem, error) {
	log := logger.Get()

	if len(items) == 0 {
		return []models.FeedItem{}, nil
	}

	var uniqueItems []models.FeedItem
	var mu sync.Mutex
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, 10)

	for _, item := range items {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case semaphore <- struct{}{}:
		}

		item := item

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			isProcessed, err := p.cache.IsProcessed(ctx, utils.Hash(item.Url))
			if err != nil {
				log.Error().
					Err(err).
					Str("url", item.Url).
					Str("guid", item.Guid).
					Msg("cache check failed, skipping item")
				return
			}
			if isProcessed {
				log.Debug().Str("guid", item.Guid).Msg("skipping already processed item")
				return
			}

			mu.Lock()
			uniqueItems = append(uniqueItems, item)
			mu.Unlock()
		}()
	}

	wg.Wait()
	return uniqueItems, nil
}

// MarkAsProcessed records the URLs so future runs skip them.
func (p *Processor) MarkAsProcessed(ctx context.Context, urls []string, ttl time.Duration) error {
	for _, url := range urls {
		if err := p.cache.MarkProcessed(ctx, utils.Hash(url), ttl); err != nil {
			return fmt.Errorf("error marking %s as processed: %w", url, err)
		}
	}
	return nil
}
