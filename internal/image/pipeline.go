// Package image acquires a featured image for an article: a free-image
// search provider first, AI generation as fallback, and a deterministic
// placeholder that always succeeds last.
package image

import (
	"context"
	"fmt"
	"strings"

	"github.com/yazgan/pressgen/internal/logger"
	"github.com/yazgan/pressgen/internal/models"
	"github.com/yazgan/pressgen/internal/utils"
)

// Source identifies which stage produced an image.
const (
	SourceSearch      = "search"
	SourceGenerated   = "generated"
	SourcePlaceholder = "placeholder"
)

// GeneratedImage is the usable result of one acquisition stage. The URL
// is ephemeral for search/generated sources and must be re-hosted before
// it is considered durable.
type GeneratedImage struct {
	Url     string `json:"url"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	AltText string `json:"alt_text"`
	Source  string `json:"source"`
}

// AcquireRequest carries what the stages need to find or generate an image.
type AcquireRequest struct {
	Title            string
	Prompt           string
	StylePreferences string
}

// SearchProvider looks up an existing free image for a query.
type SearchProvider interface {
	Search(ctx context.Context, query string) (*GeneratedImage, error)
}

// GenerationProvider creates an image from a prompt.
type GenerationProvider interface {
	Generate(ctx context.Context, prompt, size string) (*GeneratedImage, error)
}

// Pipeline tries its stages in order and falls through on failure. With
// the placeholder enabled the pipeline as a whole cannot hard-fail.
type Pipeline struct {
	search             SearchProvider
	generator          GenerationProvider
	size               string
	placeholderEnabled bool
}

// PipelineOption configures optional stages.
type PipelineOption func(*Pipeline)

// WithSearchProvider enables the free-image search stage.
func WithSearchProvider(p SearchProvider) PipelineOption {
	return func(pl *Pipeline) { pl.search = p }
}

// WithGenerationProvider enables the AI generation stage.
func WithGenerationProvider(p GenerationProvider, size string) PipelineOption {
	return func(pl *Pipeline) {
		pl.generator = p
		if size != "" {
			pl.size = size
		}
	}
}

// WithoutPlaceholder disables the guaranteed last stage. Only then can
// Acquire fail outright.
func WithoutPlaceholder() PipelineOption {
	return func(pl *Pipeline) { pl.placeholderEnabled = false }
}

// NewPipeline builds an acquisition pipeline. By default only the
// placeholder stage is active.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	pl := &Pipeline{
		size:               "1024x1024",
		placeholderEnabled: true,
	}
	for _, opt := range opts {
		opt(pl)
	}
	return pl
}

// Acquire runs the stages in order and returns the first usable image.
func (pl *Pipeline) Acquire(ctx context.Context, req AcquireRequest) (*GeneratedImage, error) {
	query := req.Title
	if query == "" {
		query = req.Prompt
	}

	if pl.search != nil {
		img, err := pl.search.Search(ctx, query)
		if err == nil && img != nil && img.Url != "" {
			img.Source = SourceSearch
			return img, nil
		}
		if err != nil {
			logger.Warn().Err(err).Str("query", query).Msg("image search failed, falling through")
		}
	}

	if pl.generator != nil {
		prompt := req.Prompt
		if prompt == "" {
			prompt = query
		}
		if req.StylePreferences != "" {
			prompt = prompt + ", " + req.StylePreferences
		}
		img, err := pl.generator.Generate(ctx, prompt, pl.size)
		if err == nil && img != nil && img.Url != "" {
			img.Source = SourceGenerated
			return img, nil
		}
		if err != nil {
			logger.Warn().Err(err).Msg("image generation failed, falling through")
		}
	}

	if pl.placeholderEnabled {
		return placeholderImage(req.Title, pl.size), nil
	}

	return nil, models.NewPipelineError(models.CodeEmptyResponse,
		"all image acquisition stages failed and the placeholder is disabled", false, nil)
}

// placeholderImage builds a deterministic placeholder URL seeded by the
// article title, so repeated runs for the same article stay stable.
func placeholderImage(title, size string) *GeneratedImage {
	width, height := parseSize(size)
	seed := utils.Hash(title)[:12]
	alt := title
	if alt == "" {
		alt = "Article illustration"
	}
	return &GeneratedImage{
		Url:     fmt.Sprintf("https://picsum.photos/seed/%s/%d/%d", seed, width, height),
		Width:   width,
		Height:  height,
		AltText: alt,
		Source:  SourcePlaceholder,
	}
}

func parseSize(size string) (int, int) {
	parts := strings.SplitN(size, "x", 2)
	if len(parts) == 2 {
		var w, h int
		if _, err := fmt.Sscanf(size, "%dx%d", &w, &h); err == nil && w > 0 && h > 0 {
			return w, h
		}
	}
	return 1024, 1024
}
