package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/histpatch/backend/internal/dataset"
	"github.com/histpatch/backend/internal/feed"
	"github.com/histpatch/backend/internal/metrics"
	"github.com/histpatch/backend/internal/simdate"
	"github.com/histpatch/backend/internal/storage/models"
	"github.com/histpatch/backend/pkg/logger"
)

type FeedHandler struct {
	store *dataset.Store
}

type feedItem struct {
	models.LogRecord
	Era string `json:"era"`
}

func NewFeedHandler(store *dataset.Store) *FeedHandler {
	return &FeedHandler{store: store}
}

func (h *FeedHandler) GetManifest(c *fiber.Ctx) error {
	manifest := h.store.Manifest()
	if manifest == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Manifest not loaded",
		})
	}
	return c.JSON(manifest)
}

func (h *FeedHandler) GetFeed(c *fiber.Ctx) error {
	start := time.Now()

	state := feed.FilterState{
		Search:       c.Query("search"),
		Region:       c.Query("region", feed.RegionAll),
		CriticalOnly: c.QueryBool("critical", false),
		Verbose:      c.QueryBool("verbose", false),
		Sort:         c.Query("sort", feed.SortDateDesc),
	}

	selected := h.selectedPeriods(c.Query("periods"))
	if len(selected) == 0 {
		metrics.FeedRequests.WithLabelValues("empty").Inc()
		return c.JSON(fiber.Map{
			"records": []feedItem{},
			"total":   0,
		})
	}

	// Load every selected shard that is not cached yet. A shard that fails
	// to load just contributes no records.
	for _, file := range selected {
		if err := h.store.Load(c.Context(), file); err != nil {
			logger.Warn("Shard unavailable for feed", zap.String("file", file), zap.Error(err))
		}
	}

	records := feed.FilterAndSort(h.store.Merged(), selected, state)

	items := make([]feedItem, 0, len(records))
	for _, r := range records {
		items = append(items, feedItem{LogRecord: r, Era: simdate.Era(r.Date)})
	}

	metrics.FeedRequests.WithLabelValues("ok").Inc()
	metrics.FeedDuration.Observe(time.Since(start).Seconds())
	metrics.FeedRecordsReturned.Observe(float64(len(items)))

	return c.JSON(fiber.Map{
		"records": items,
		"total":   len(items),
	})
}

// selectedPeriods parses the comma-separated periods parameter; when the
// client selects nothing, the manifest's current year shard is used.
func (h *FeedHandler) selectedPeriods(param string) []string {
	var selected []string
	for _, p := range strings.Split(param, ",") {
		if p = strings.TrimSpace(p); p != "" {
			selected = append(selected, p)
		}
	}

	if len(selected) == 0 {
		if manifest := h.store.Manifest(); manifest != nil {
			if file := manifest.CurrentYearFile(); file != "" {
				selected = append(selected, file)
			}
		}
	}

	return selected
}
