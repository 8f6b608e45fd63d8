package middleware

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/yazgan/pressgen/internal/logger"
	"github.com/yazgan/pressgen/internal/models"
)

var validate = validator.New()

// ParseAndValidate decodes the request body into dst and checks its
// validate tags. On failure it writes the error response and returns
// false; the handler should return nil in that case.
func ParseAndValidate(c *fiber.Ctx, dst interface{}) bool {
	if err := c.BodyParser(dst); err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
			"msg":   err.Error(),
		})
		return false
	}

	if err := validate.Struct(dst); err != nil {
		fields := make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, ve := range verrs {
				fields[ve.Field()] = ve.Tag()
			}
		}
		c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": fields,
		})
		return false
	}

	return true
}

// ErrorHandler maps domain errors to HTTP statuses and keeps the
// response shape uniform.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	var transitionErr *models.IllegalTransitionError
	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
	case errors.Is(err, models.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.As(err, &transitionErr),
		errors.Is(err, models.ErrTerminalState),
		errors.Is(err, models.ErrMaxRetriesExceeded):
		code = fiber.StatusConflict
	}

	logger.Get().Error().
		Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", code).
		Msg("HTTP error")

	return c.Status(code).JSON(fiber.Map{
		"error": http.StatusText(code),
		"msg":   err.Error(),
	})
}
