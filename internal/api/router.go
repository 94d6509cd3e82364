// Package api mounts the HTTP and websocket routes of the demo backend.
package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/api/handlers"
	"github.com/genre-tester/backend/internal/classifier"
	"github.com/genre-tester/backend/internal/dataset"
	"github.com/genre-tester/backend/internal/feedback"
	"github.com/genre-tester/backend/internal/metrics"
	"github.com/genre-tester/backend/pkg/logger"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	Predictor      classifier.Predictor
	Feedback       feedback.Submitter
	Trainer        handlers.Trainer
	Catalog        dataset.Catalog
	DefaultDataset string
	History        handlers.HistoryLister
	Evaluator      handlers.Reporter
	Tuning         classifier.Tuning
	// Checks are pinged by /api/ready.
	Checks map[string]Pinger
}

func Register(app *fiber.App, deps Dependencies) {
	predictHandler := handlers.NewPredictHandler(deps.Predictor)
	feedbackHandler := handlers.NewFeedbackHandler(deps.Feedback)
	trainingHandler := handlers.NewTrainingHandler(deps.Trainer, deps.Catalog, deps.DefaultDataset)
	historyHandler := handlers.NewHistoryHandler(deps.History, deps.Evaluator)
	streamHandler := handlers.NewTrainingStreamHandler(trainingHandler)

	api := app.Group("/api")

	api.Post("/predict/:model/", predictHandler.Predict)

	api.Post("/feedback/correct/", feedbackHandler.Correct)
	api.Post("/feedback/incorrect/", feedbackHandler.Incorrect)

	api.Post("/train", trainingHandler.Train)
	api.Get("/train/history", trainingHandler.History)

	api.Get("/history", historyHandler.List)
	api.Get("/history/summary", historyHandler.Summary)
	api.Get("/history/:fileId", historyHandler.Get)

	api.Get("/models", handlers.Models(deps.Tuning))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		checks := fiber.Map{}
		ready := true
		for name, p := range deps.Checks {
			if err := p.Ping(ctx); err != nil {
				logger.Warn("Readiness check failed", zap.String("check", name), zap.Error(err))
				checks[name] = err.Error()
				ready = false
				continue
			}
			checks[name] = "ok"
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not_ready",
				"checks": checks,
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
			"checks": checks,
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/train", websocket.New(streamHandler.HandleConnection))
}
