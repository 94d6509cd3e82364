package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/evaluation"
	"github.com/genre-tester/backend/internal/history"
	"github.com/genre-tester/backend/pkg/logger"
)

type HistoryLister interface {
	List(ctx context.Context, source history.Source, limit int) ([]history.Item, error)
	Get(ctx context.Context, fileID string) (*history.Item, error)
	DefaultSource() history.Source
}

type Reporter interface {
	Report(ctx context.Context) (*evaluation.Report, error)
}

type HistoryHandler struct {
	history   HistoryLister
	evaluator Reporter
}

func NewHistoryHandler(lister HistoryLister, evaluator Reporter) *HistoryHandler {
	return &HistoryHandler{
		history:   lister,
		evaluator: evaluator,
	}
}

func (h *HistoryHandler) List(c *fiber.Ctx) error {
	source, err := h.source(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit must not be negative",
		})
	}

	items, err := h.history.List(c.Context(), source, limit)
	if err != nil {
		logger.Error("Failed to load prediction history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load prediction history",
		})
	}
	if items == nil {
		items = []history.Item{}
	}

	return c.JSON(fiber.Map{
		"source":  source,
		"history": items,
	})
}

func (h *HistoryHandler) Get(c *fiber.Ctx) error {
	item, err := h.history.Get(c.Context(), c.Params("fileId"))
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Prediction not found",
			})
		}
		logger.Error("Failed to load prediction", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load prediction",
		})
	}
	return c.JSON(item)
}

func (h *HistoryHandler) Summary(c *fiber.Ctx) error {
	source, err := h.source(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if source == history.SourceMock || h.evaluator == nil {
		items, err := h.history.List(c.Context(), source, 0)
		if err != nil {
			logger.Error("Failed to load prediction history", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to summarize history",
			})
		}
		return c.JSON(evaluation.Summarize(items))
	}

	report, err := h.evaluator.Report(c.Context())
	if err != nil {
		logger.Error("Failed to build feedback report", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to summarize history",
		})
	}
	return c.JSON(report)
}

func (h *HistoryHandler) source(c *fiber.Ctx) (history.Source, error) {
	raw := c.Query("source")
	if raw == "" {
		return h.history.DefaultSource(), nil
	}
	return history.ParseSource(raw)
}
