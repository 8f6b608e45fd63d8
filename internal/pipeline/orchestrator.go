// Package pipeline composes generation, extraction, and the optional
// image stage into one feed-item-to-article operation.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yazgan/pressgen/internal/ai"
	"github.com/yazgan/pressgen/internal/image"
	"github.com/yazgan/pressgen/internal/logger"
	"github.com/yazgan/pressgen/internal/models"
	"github.com/yazgan/pressgen/internal/wordpress"
)

// MediaUploader is the port that turns a downloaded binary into a
// permanent target-hosted media reference.
type MediaUploader interface {
	UploadMedia(ctx context.Context, target models.Target, req wordpress.UploadRequest) (*wordpress.MediaRef, error)
}

// Archiver keeps an off-target copy of uploaded binaries. Optional;
// failures never affect the generation result.
type Archiver interface {
	Archive(ctx context.Context, filename string, data []byte, contentType string) (string, error)
}

// ImageSaver persists featured-image state between transitions.
type ImageSaver interface {
	Save(ctx context.Context, img *models.FeaturedImage) error
}

// Settings direct one generation call.
type Settings struct {
	GenerateFeaturedImage bool
	StylePreferences      string
	Target                *models.Target
}

// Result is the aggregate outcome of one generation call. Image is nil
// when the image stage was skipped or failed; the article payload is the
// primary deliverable either way.
type Result struct {
	Article *models.Article
	Image   *models.FeaturedImage
	MediaID int64
}

// Orchestrator sequences the end-to-end generation flow. It does not
// retry the provider call itself; retries are driven by the caller
// through the Publication retry mechanism.
type Orchestrator struct {
	provider   ai.Provider
	extractor  *ai.Extractor
	postProc   *ai.PostProcessor
	images     *image.Pipeline
	downloader *image.Downloader
	uploader   MediaUploader
	imageRepo  ImageSaver
	archiver   Archiver
}

// Option wires optional collaborators.
type Option func(*Orchestrator)

// WithImageStage enables the featured-image path.
func WithImageStage(pl *image.Pipeline, dl *image.Downloader, up MediaUploader, repo ImageSaver) Option {
	return func(o *Orchestrator) {
		o.images = pl
		o.downloader = dl
		o.uploader = up
		o.imageRepo = repo
	}
}

// WithArchiver enables archival copies of uploaded media.
func WithArchiver(a Archiver) Option {
	return func(o *Orchestrator) { o.archiver = a }
}

// NewOrchestrator builds the orchestrator around the generation provider.
func NewOrchestrator(provider ai.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:  provider,
		extractor: ai.NewExtractor(),
		postProc:  ai.NewPostProcessor(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate turns one feed item into an article payload, with an optional
// featured image. A provider failure aborts the flow; an image-stage
// failure is logged and skipped because the article text is the primary
// deliverable.
func (o *Orchestrator) Generate(ctx context.Context, item models.FeedItem, custom ai.CustomPrompts, settings Settings) (*Result, error) {
	prompt := ai.BuildArticlePrompt(item, custom)

	raw, err := o.provider.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generation call failed: %w", err)
	}

	payload := o.extractor.Extract(raw)
	if err := o.postProc.Process(&payload); err != nil {
		// Best effort: a payload that fails validation still publishes,
		// flagged by its extraction strategy.
		logger.Warn().Err(err).Str("strategy", string(payload.Strategy)).Msg("payload post-processing failed")
	}

	article := &models.Article{
		ID:         uuid.NewString(),
		SourceGuid: item.Guid,
		Payload:    payload,
		SourceUrl:  item.Url,
		CreatedAt:  time.Now().UTC(),
	}

	result := &Result{Article: article}

	if settings.GenerateFeaturedImage && settings.Target != nil && o.images != nil {
		img, mediaID := o.runImageStage(ctx, article, settings)
		if img != nil {
			article.ImageID = img.ID
			result.Image = img
			result.MediaID = mediaID
		}
	}

	return result, nil
}

// runImageStage acquires, downloads, and uploads the featured image.
// Every failure path marks the image failed and returns it for
// bookkeeping; none of them fail the generation.
func (o *Orchestrator) runImageStage(ctx context.Context, article *models.Article, settings Settings) (*models.FeaturedImage, int64) {
	log := logger.Get()
	img := models.NewFeaturedImage(article.ID)

	prompt := article.Payload.ImagePrompt
	if err := img.StartSearch(article.Payload.Title, prompt); err != nil {
		log.Error().Err(err).Msg("image bookkeeping error")
		return nil, 0
	}
	o.saveImage(ctx, img)

	acquired, err := o.images.Acquire(ctx, image.AcquireRequest{
		Title:            article.Payload.Title,
		Prompt:           prompt,
		StylePreferences: settings.StylePreferences,
	})
	if err != nil {
		return o.failImage(ctx, img, fmt.Sprintf("acquisition failed: %v", err)), 0
	}
	if err := img.MarkFound(acquired.Url, acquired.AltText); err != nil {
		log.Error().Err(err).Msg("image bookkeeping error")
		return img, 0
	}
	o.saveImage(ctx, img)

	file, err := o.downloader.Download(ctx, acquired.Url)
	if err != nil {
		return o.failImage(ctx, img, fmt.Sprintf("download failed: %v", err)), 0
	}

	if o.archiver != nil {
		if _, err := o.archiver.Archive(ctx, file.Filename, file.Data, file.ContentType); err != nil {
			log.Warn().Err(err).Str("filename", file.Filename).Msg("media archive failed")
		}
	}

	ref, err := o.uploader.UploadMedia(ctx, *settings.Target, wordpress.UploadRequest{
		File:    file,
		Title:   article.Payload.Title,
		AltText: acquired.AltText,
	})
	if err != nil {
		return o.failImage(ctx, img, fmt.Sprintf("upload failed: %v", err)), 0
	}

	if err := img.MarkUploaded(ref.ID, ref.Url, file.Filename); err != nil {
		log.Error().Err(err).Msg("image bookkeeping error")
		return img, 0
	}
	o.saveImage(ctx, img)

	log.Info().
		Str("article_id", article.ID).
		Int64("media_id", ref.ID).
		Str("source", acquired.Source).
		Msg("featured image uploaded")
	return img, ref.ID
}

func (o *Orchestrator) failImage(ctx context.Context, img *models.FeaturedImage, msg string) *models.FeaturedImage {
	logger.Warn().Str("image_id", img.ID).Str("reason", msg).Msg("image stage skipped")
	if err := img.MarkFailed(msg); err != nil {
		logger.Error().Err(err).Msg("image bookkeeping error")
	}
	o.saveImage(ctx, img)
	return img
}

func (o *Orchestrator) saveImage(ctx context.Context, img *models.FeaturedImage) {
	if o.imageRepo == nil {
		return
	}
	if err := o.imageRepo.Save(ctx, img); err != nil {
		logger.Error().Err(err).Str("image_id", img.ID).Msg("failed to persist image state")
	}
}
