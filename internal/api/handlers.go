// Package api exposes the HTTP surface: article and publication reads,
// plus admin endpoints that drive the generation pipeline.
package api

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yazgan/pressgen/internal/ai"
	"github.com/yazgan/pressgen/internal/config"
	"github.com/yazgan/pressgen/internal/feed"
	"github.com/yazgan/pressgen/internal/logger"
	"github.com/yazgan/pressgen/internal/middleware"
	"github.com/yazgan/pressgen/internal/models"
	"github.com/yazgan/pressgen/internal/pipeline"
	"github.com/yazgan/pressgen/internal/publisher"
	"github.com/yazgan/pressgen/internal/storage"
)

// Handlers carries the wired collaborators. Everything is injected from
// the composition root.
type Handlers struct {
	cfg          *config.Config
	processor    *feed.Processor
	orchestrator *pipeline.Orchestrator
	publisher    *publisher.Service
	articles     *storage.ArticleRepo
	publications *storage.PublicationRepo
	images       *storage.ImageRepo
}

func NewHandlers(
	cfg *config.Config,
	processor *feed.Processor,
	orchestrator *pipeline.Orchestrator,
	pub *publisher.Service,
	articles *storage.ArticleRepo,
	publications *storage.PublicationRepo,
	images *storage.ImageRepo,
) *Handlers {
	return &Handlers{
		cfg:          cfg,
		processor:    processor,
		orchestrator: orchestrator,
		publisher:    pub,
		articles:     articles,
		publications: publications,
		images:       images,
	}
}

// HealthCheck handles GET /api/v1/health.
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"env":    h.cfg.Env,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListArticles handles GET /api/v1/articles.
func (h *Handlers) ListArticles(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}

	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	switch {
	case pageSize > 100:
		pageSize = 100
	case pageSize <= 0:
		pageSize = 20
	}

	articles, err := h.articles.List(c.Context(), page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"page":      page,
		"page_size": pageSize,
		"total":     len(articles),
		"items":     articles,
	})
}

// GetArticle handles GET /api/v1/articles/:id. The featured image is
// attached when one exists.
func (h *Handlers) GetArticle(c *fiber.Ctx) error {
	id := c.Params("id")

	article, err := h.articles.FindByID(c.Context(), id)
	if err != nil {
		return err
	}

	resp := fiber.Map{"article": article}
	if img, imgErr := h.images.FindByArticleID(c.Context(), id); imgErr == nil {
		resp["image"] = img
	}

	return c.JSON(resp)
}

// ListPublications handles GET /api/v1/publications.
func (h *Handlers) ListPublications(c *fiber.Ctx) error {
	pubs, err := h.publications.List(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"total": len(pubs),
		"items": pubs,
	})
}

// GetPublication handles GET /api/v1/publications/:id.
func (h *Handlers) GetPublication(c *fiber.Ctx) error {
	p, err := h.publications.FindByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// ProcessRequest is the admin trigger payload.
type ProcessRequest struct {
	FeedURLs         []string         `json:"feed_urls" validate:"required,min=1,dive,url"`
	GenerateImages   *bool            `json:"generate_images"`
	StylePreferences string           `json:"style_preferences"`
	ScheduleAt       *time.Time       `json:"schedule_at"`
	Prompts          ai.CustomPrompts `json:"prompts"`
}

// ProcessFeeds handles POST /api/v1/admin/process. The pipeline runs in
// the background; the response only acknowledges the trigger.
func (h *Handlers) ProcessFeeds(c *fiber.Ctx) error {
	var req ProcessRequest
	if !middleware.ParseAndValidate(c, &req) {
		return nil
	}

	generateImages := h.cfg.GenerateImages
	if req.GenerateImages != nil {
		generateImages = *req.GenerateImages
	}

	go h.runPipeline(req, generateImages)

	return c.JSON(fiber.Map{
		"status":  "started",
		"message": fmt.Sprintf("Processing %d feed(s) in the background", len(req.FeedURLs)),
		"feeds":   len(req.FeedURLs),
	})
}

// runPipeline is the background job behind the admin trigger: fetch and
// dedupe the feeds, generate an article per item, register a
// publication, and publish immediate ones.
func (h *Handlers) runPipeline(req ProcessRequest, generateImages bool) {
	log := logger.Get()
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	items, err := h.processor.ProcessFeeds(ctx, req.FeedURLs)
	if err != nil {
		log.Error().Err(err).Msg("feed processing failed")
		return
	}

	target := h.target()
	settings := pipeline.Settings{
		GenerateFeaturedImage: generateImages,
		StylePreferences:      req.StylePreferences,
		Target:                target,
	}

	generated := 0
	for i, item := range items {
		select {
		case <-ctx.Done():
			log.Warn().
				Int("processed", i).
				Int("total", len(items)).
				Msg("pipeline cancelled before finishing")
			return
		default:
		}

		result, err := h.orchestrator.Generate(ctx, item, req.Prompts, settings)
		if err != nil {
			log.Error().
				Err(err).
				Str("guid", item.Guid).
				Msg("article generation failed")
			continue
		}

		if err := h.articles.Save(ctx, result.Article); err != nil {
			log.Error().Err(err).Str("article_id", result.Article.ID).Msg("article save failed")
			continue
		}

		if target != nil {
			h.registerPublication(ctx, result, *target, req.ScheduleAt)
		}

		if err := h.processor.MarkAsProcessed(ctx, []string{item.Url}, h.cfg.CacheTTL); err != nil {
			log.Error().Err(err).Str("url", item.Url).Msg("failed to mark item processed")
		}
		generated++
	}

	log.Info().
		Int("items", len(items)).
		Int("generated", generated).
		Dur("duration", time.Since(start)).
		Msg("pipeline run finished")
}

func (h *Handlers) registerPublication(ctx context.Context, result *pipeline.Result, target models.Target, scheduleAt *time.Time) {
	log := logger.Get()

	var p *models.Publication
	var err error
	if scheduleAt != nil {
		p, err = h.publisher.CreateScheduled(ctx, result.Article, target, h.cfg.MaxRetries, result.MediaID, *scheduleAt)
	} else {
		p, err = h.publisher.CreateImmediate(ctx, result.Article, target, h.cfg.MaxRetries, result.MediaID)
	}
	if err != nil {
		log.Error().Err(err).Str("article_id", result.Article.ID).Msg("publication create failed")
		return
	}

	// Scheduled publications wait for the worker sweep.
	if scheduleAt != nil {
		return
	}

	if err := h.publisher.Publish(ctx, p); err != nil {
		log.Warn().
			Err(err).
			Str("publication_id", p.ID).
			Msg("immediate publish attempt failed")
	}
}

func (h *Handlers) target() *models.Target {
	if !h.cfg.HasWordPressTarget() {
		return nil
	}
	return &models.Target{
		Platform:    "wordpress",
		SiteUrl:     h.cfg.WPSiteURL,
		Username:    h.cfg.WPUsername,
		AppPassword: h.cfg.WPAppPassword,
		Status:      h.cfg.WPPostStatus,
	}
}

// RetryPublication handles POST /api/v1/admin/publications/:id/retry.
func (h *Handlers) RetryPublication(c *fiber.Ctx) error {
	p, err := h.publisher.Retry(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":      p.Status,
		"retry_count": p.RetryCount,
		"max_retries": p.MaxRetries,
	})
}

// CancelPublication handles POST /api/v1/admin/publications/:id/cancel.
func (h *Handlers) CancelPublication(c *fiber.Ctx) error {
	p, err := h.publisher.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"status": p.Status})
}
