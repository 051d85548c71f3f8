package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/histpatch/backend/internal/contributors"
	"github.com/histpatch/backend/internal/storage/models"
	"github.com/histpatch/backend/pkg/logger"
)

type ContributorsHandler struct {
	client *contributors.Client
}

func NewContributorsHandler(client *contributors.Client) *ContributorsHandler {
	return &ContributorsHandler{client: client}
}

// GetContributors degrades to an offline placeholder on any failure; the
// widget is decoration, not data.
func (h *ContributorsHandler) GetContributors(c *fiber.Ctx) error {
	list, err := h.client.List(c.Context())
	if err != nil {
		logger.Warn("Contributor listing unavailable", zap.Error(err))
		return c.JSON(fiber.Map{
			"offline":      true,
			"contributors": []models.Contributor{},
		})
	}

	return c.JSON(fiber.Map{
		"offline":      false,
		"contributors": list,
	})
}
