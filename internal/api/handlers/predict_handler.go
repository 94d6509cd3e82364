package handlers

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/classifier"
	"github.com/genre-tester/backend/internal/remote"
	"github.com/genre-tester/backend/pkg/logger"
)

type PredictHandler struct {
	predictor classifier.Predictor
}

func NewPredictHandler(predictor classifier.Predictor) *PredictHandler {
	return &PredictHandler{
		predictor: predictor,
	}
}

// Predict handles POST /api/predict/:model/ with a multipart "file" field.
func (h *PredictHandler) Predict(c *fiber.Ctx) error {
	model, err := classifier.ParseModel(c.Params("model"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file provided",
		})
	}

	f, err := fh.Open()
	if err != nil {
		logger.Error("Failed to open upload", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		logger.Error("Failed to read upload", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}

	result, err := h.predictor.Predict(c.Context(), classifier.PredictRequest{
		Model:    model,
		Filename: fh.Filename,
		Data:     data,
	})
	if err != nil {
		return predictionError(c, err)
	}

	return c.JSON(result)
}

func predictionError(c *fiber.Ctx, err error) error {
	var se *remote.StatusError
	switch {
	case errors.Is(err, classifier.ErrNoFile):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file provided",
		})
	case errors.Is(err, classifier.ErrUnknownModel):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.As(err, &se):
		logger.Error("Classification backend rejected request", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	logger.Error("Prediction failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Prediction failed",
	})
}
