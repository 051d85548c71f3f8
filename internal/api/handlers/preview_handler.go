package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/histpatch/backend/internal/dataset"
	"github.com/histpatch/backend/internal/preview"
	"github.com/histpatch/backend/pkg/logger"
)

type PreviewHandler struct {
	store  *dataset.Store
	client *preview.Client
}

func NewPreviewHandler(store *dataset.Store, client *preview.Client) *PreviewHandler {
	return &PreviewHandler{store: store, client: client}
}

func (h *PreviewHandler) GetPreview(c *fiber.Ctx) error {
	id := c.Params("id")

	var wikiURL string
	for _, r := range h.store.Merged() {
		if r.ID.String() == id {
			wikiURL = r.WikiURL
			break
		}
	}

	if wikiURL == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No reference page for this record",
		})
	}

	p, err := h.client.Fetch(c.Context(), wikiURL)
	if err != nil {
		logger.Warn("Preview fetch failed", zap.String("url", wikiURL), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Reference page unavailable",
		})
	}

	return c.JSON(p)
}
