package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/classifier"
	"github.com/genre-tester/backend/internal/dataset"
	"github.com/genre-tester/backend/internal/middleware/validation"
	"github.com/genre-tester/backend/internal/training"
	"github.com/genre-tester/backend/pkg/logger"
)

type Trainer interface {
	Train(ctx context.Context, cfg training.Config, sampleCount int) (*training.Result, error)
	History(ctx context.Context) ([]training.Result, error)
}

// TrainRequest mirrors the tester page form. Unset split and shuffle take
// the form's defaults (80, true).
type TrainRequest struct {
	Model             string `json:"model" validate:"required,genremodel"`
	DatasetPath       string `json:"datasetPath" validate:"max=1024"`
	TrainSplitPercent *int   `json:"trainSplitPercent" validate:"omitempty,min=60,max=90"`
	Shuffle           *bool  `json:"shuffle"`
	Augment           bool   `json:"augment"`
}

type TrainingHandler struct {
	trainer        Trainer
	catalog        dataset.Catalog
	defaultDataset string
}

func NewTrainingHandler(trainer Trainer, catalog dataset.Catalog, defaultDataset string) *TrainingHandler {
	if defaultDataset == "" {
		defaultDataset = dataset.DefaultPath
	}
	return &TrainingHandler{
		trainer:        trainer,
		catalog:        catalog,
		defaultDataset: defaultDataset,
	}
}

func (h *TrainingHandler) Train(c *fiber.Ctx) error {
	var req TrainRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	cfg, samples, err := h.prepare(c.Context(), req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	result, err := h.trainer.Train(c.Context(), cfg, samples)
	if err != nil {
		if errors.Is(err, classifier.ErrUnknownModel) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		logger.Error("Training simulation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Training failed",
		})
	}

	return c.JSON(result)
}

func (h *TrainingHandler) History(c *fiber.Ctx) error {
	results, err := h.trainer.History(c.Context())
	if err != nil {
		logger.Error("Failed to load training history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load training history",
		})
	}
	if results == nil {
		results = []training.Result{}
	}

	return c.JSON(fiber.Map{
		"history": results,
	})
}

// prepare validates req, fills the form defaults and resolves the sample
// count. An unknown dataset trains on zero samples rather than failing.
func (h *TrainingHandler) prepare(ctx context.Context, req TrainRequest) (training.Config, int, error) {
	if err := validation.Struct(req); err != nil {
		return training.Config{}, 0, err
	}

	model, err := classifier.ParseModel(req.Model)
	if err != nil {
		return training.Config{}, 0, err
	}

	cfg := training.Config{
		Model:             model,
		DatasetPath:       req.DatasetPath,
		TrainSplitPercent: training.DefaultSplit,
		Shuffle:           true,
		Augment:           req.Augment,
	}
	if cfg.DatasetPath == "" {
		cfg.DatasetPath = h.defaultDataset
	}
	if req.TrainSplitPercent != nil {
		cfg.TrainSplitPercent = *req.TrainSplitPercent
	}
	if req.Shuffle != nil {
		cfg.Shuffle = *req.Shuffle
	}

	samples := 0
	if h.catalog != nil {
		n, err := h.catalog.Count(ctx, cfg.DatasetPath)
		switch {
		case err == nil:
			samples = n
		case errors.Is(err, dataset.ErrNotFound):
			logger.Warn("Dataset not found, training on zero samples", zap.String("path", cfg.DatasetPath))
		default:
			return training.Config{}, 0, err
		}
	}

	return cfg, samples, nil
}
