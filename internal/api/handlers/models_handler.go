package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/genre-tester/backend/internal/classifier"
	"github.com/genre-tester/backend/pkg/utils"
)

type modelInfo struct {
	ID           classifier.ModelID `json:"id"`
	Endpoint     string             `json:"endpoint"`
	BaseAccuracy string             `json:"baseAccuracy"`
}

func Models(tuning classifier.Tuning) fiber.Handler {
	models := make([]modelInfo, 0, len(classifier.Models))
	for _, m := range classifier.Models {
		models = append(models, modelInfo{
			ID:           m,
			Endpoint:     "/api/predict/" + m.Slug() + "/",
			BaseAccuracy: utils.Percent(tuning.Base(m), 2),
		})
	}

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"models": models,
			"labels": classifier.Labels,
		})
	}
}
