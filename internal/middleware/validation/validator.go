package validation

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var scriptPattern = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=)`)

type Config struct {
	MaxPromptLength int
	MaxSearchLength int
	Logger          *zap.Logger
}

func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxPromptLength == 0 {
		cfg.MaxPromptLength = 2000
	}
	if cfg.MaxSearchLength == 0 {
		cfg.MaxSearchLength = 200
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		path := c.Path()

		if strings.HasSuffix(path, "/diagnostic") && c.Method() == fiber.MethodPost {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			prompt, ok := req["prompt"].(string)
			if !ok || strings.TrimSpace(prompt) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Prompt is required and must be a string",
				})
			}

			if len(prompt) > cfg.MaxPromptLength {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Prompt exceeds maximum length",
				})
			}

			if scriptPattern.MatchString(prompt) {
				cfg.Logger.Warn("Rejected prompt with markup injection",
					zap.String("ip", c.IP()),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid prompt content",
				})
			}
		}

		if search := c.Query("search"); len(search) > cfg.MaxSearchLength {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Search term exceeds maximum length",
			})
		}

		return c.Next()
	}
}
