package feed

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/yazgan/pressgen/internal/models"
)

// Parser cleans and validates raw feed items before generation.
type Parser struct {
	htmlTagRegex *regexp.Regexp
}

func NewParser() *Parser {
	return &Parser{
		htmlTagRegex: regexp.MustCompile(`<[^>]*>`),
	}
}

// CleanHTML strips tags, unescapes entities, and collapses whitespace.
func (p *Parser) CleanHTML(input string) string {
	cleaned := p.htmlTagRegex.ReplaceAllString(input, " ")
	cleaned = html.UnescapeString(cleaned)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return strings.TrimSpace(cleaned)
}

// NormalizeFeedItem returns a cleaned copy of the item.
func (p *Parser) NormalizeFeedItem(item models.FeedItem) models.FeedItem {
	return models.FeedItem{
		Guid:     strings.TrimSpace(item.Guid),
		Title:    p.CleanHTML(item.Title),
		Content:  p.CleanHTML(item.Content),
		Image:    strings.TrimSpace(item.Image),
		Url:      strings.TrimSpace(item.Url),
		Category: strings.TrimSpace(item.Category),
	}
}

// ValidateFeedItem checks the fields generation cannot do without.
func (p *Parser) ValidateFeedItem(item models.FeedItem) error {
	if item.Guid == "" {
		return fmt.Errorf("missing required field: guid")
	}
	if item.Title == "" {
		return fmt.Errorf("missing required field: title")
	}
	if item.Url == "" {
		return fmt.Errorf("missing required field: url")
	}
	return nil
}

// ProcessFeedItems normalizes and validates items concurrently,
// returning the valid ones and the per-item validation errors.
func (p *Parser) ProcessFeedItems(ctx context.Context, items []models.FeedItem) ([]models.FeedItem, []error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var validItems []models.FeedItem
	var errors []error

	semaphore := make(chan struct{}, 10)

	for _, item := range items {
		select {
		case <-ctx.Done():
			return validItems, append(errors, ctx.Err())
		case semaphore <- struct{}{}:
		}

		item := item

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			normalized := p.NormalizeFeedItem(item)
			if err := p.ValidateFeedItem(normalized); err != nil {
				mu.Lock()
				errors = append(errors, fmt.Errorf("invalid feed item %s: %w", item.Guid, err))
				mu.Unlock()
				return
			}

			mu.Lock()
			validItems = append(validItems, normalized)
			mu.Unlock()
		}()
	}

	wg.Wait()
	return validItems, errors
}
