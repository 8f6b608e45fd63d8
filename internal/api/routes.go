package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/yazgan/pressgen/internal/middleware"
)

// SetupRoutes mounts the HTTP surface on the app.
func SetupRoutes(app *fiber.App, h *Handlers, adminKey string) {
	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	api := app.Group("/api/v1")

	api.Get("/health", h.HealthCheck)

	articles := api.Group("/articles")
	{
		articles.Get("", h.ListArticles)
		articles.Get("/:id", h.GetArticle)
	}

	publications := api.Group("/publications")
	{
		publications.Get("", h.ListPublications)
		publications.Get("/:id", h.GetPublication)
	}

	admin := api.Group("/admin", middleware.AdminOnly(adminKey))
	{
		admin.Post("/process", h.ProcessFeeds)
		admin.Post("/publications/:id/retry", h.RetryPublication)
		admin.Post("/publications/:id/cancel", h.CancelPublication)
	}

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
