package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/histpatch/backend/internal/dataset"
	"github.com/histpatch/backend/internal/feed"
	"github.com/histpatch/backend/internal/metrics"
)

type TickerHandler struct {
	store *dataset.Store
}

func NewTickerHandler(store *dataset.Store) *TickerHandler {
	return &TickerHandler{store: store}
}

// GetTicker returns every active record, duplicated once for the marquee
// loop. The feed's filter state never applies here.
func (h *TickerHandler) GetTicker(c *fiber.Ctx) error {
	active := feed.Active(h.store.Merged())
	metrics.ActiveRecords.Set(float64(len(active)))

	return c.JSON(fiber.Map{
		"placeholder": len(active) == 0,
		"records":     feed.TickerSequence(active),
	})
}
