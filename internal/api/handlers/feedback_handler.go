package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/feedback"
	"github.com/genre-tester/backend/internal/remote"
	"github.com/genre-tester/backend/pkg/logger"
)

type FeedbackHandler struct {
	submitter feedback.Submitter
}

func NewFeedbackHandler(submitter feedback.Submitter) *FeedbackHandler {
	return &FeedbackHandler{
		submitter: submitter,
	}
}

func (h *FeedbackHandler) Correct(c *fiber.Ctx) error {
	return h.submit(c, true)
}

func (h *FeedbackHandler) Incorrect(c *fiber.Ctx) error {
	return h.submit(c, false)
}

func (h *FeedbackHandler) submit(c *fiber.Ctx, correct bool) error {
	var req struct {
		FileID string `json:"file_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.submitter.Submit(c.Context(), req.FileID, correct)
	if err != nil {
		var se *remote.StatusError
		switch {
		case errors.Is(err, feedback.ErrMissingFileID):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": feedback.ErrMissingFileID.Error(),
			})
		case errors.As(err, &se):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		logger.Error("Failed to record feedback", zap.String("file_id", req.FileID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record feedback",
		})
	}

	return c.JSON(result)
}
