package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/histpatch/backend/internal/diagnostic"
	"github.com/histpatch/backend/internal/storage/sqlite"
	"github.com/histpatch/backend/pkg/logger"
)

type DiagnosticHandler struct {
	service *diagnostic.Service
	db      *sqlite.Client
}

func NewDiagnosticHandler(service *diagnostic.Service, db *sqlite.Client) *DiagnosticHandler {
	return &DiagnosticHandler{service: service, db: db}
}

func (h *DiagnosticHandler) RunDiagnostic(c *fiber.Ctx) error {
	var req struct {
		Prompt string `json:"prompt"`
		UserID string `json:"user_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Prompt is required",
		})
	}

	userID := req.UserID
	if userID == "" && h.db != nil {
		id, err := h.db.InstanceID()
		if err != nil {
			logger.Warn("Failed to resolve instance id", zap.Error(err))
		} else {
			userID = id
		}
	}

	resp, err := h.service.Run(c.Context(), req.Prompt, userID)
	if err != nil {
		logger.Error("Diagnostic failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "DIAGNOSTIC ERROR: signal lost. Re-submit to retry.",
		})
	}

	return c.JSON(fiber.Map{
		"id":         resp.ID,
		"diagnostic": resp.Text,
		"cached":     resp.Cached,
	})
}

func (h *DiagnosticHandler) GetHistory(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	records, err := h.service.History(userID, c.QueryInt("limit", 20))
	if err != nil {
		logger.Error("Failed to load diagnostic history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load history",
		})
	}

	return c.JSON(fiber.Map{
		"history": records,
	})
}
