package handlers

import (
	"context"
	"fmt"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/training"
	"github.com/genre-tester/backend/pkg/logger"
)

// TrainingStreamHandler runs training simulations over a websocket so the
// tester page can show progress instead of holding a request open.
type TrainingStreamHandler struct {
	training *TrainingHandler
}

func NewTrainingStreamHandler(training *TrainingHandler) *TrainingStreamHandler {
	return &TrainingStreamHandler{
		training: training,
	}
}

type streamMessage struct {
	Type   string       `json:"type"`
	Config TrainRequest `json:"config"`
}

func (h *TrainingStreamHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg streamMessage
		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			return
		}

		if msg.Type != "train" {
			h.sendError(c, fmt.Sprintf("unsupported message type %q", msg.Type))
			continue
		}

		if err := h.run(ctx, c, msg.Config); err != nil {
			logger.Error("Failed to stream training run", zap.Error(err))
			return
		}
	}
}

// run returns an error only when the connection itself failed.
func (h *TrainingStreamHandler) run(ctx context.Context, c *websocket.Conn, req TrainRequest) error {
	cfg, samples, err := h.training.prepare(ctx, req)
	if err != nil {
		return h.sendError(c, err.Error())
	}

	status := fmt.Sprintf("Training %s on %s (%d samples, split %s)",
		cfg.Model, cfg.DatasetPath, samples, training.SplitLabel(training.ClampSplit(cfg.TrainSplitPercent)))
	if err := h.send(c, map[string]interface{}{
		"type":    "status",
		"content": status,
	}); err != nil {
		return err
	}

	result, err := h.training.trainer.Train(ctx, cfg, samples)
	if err != nil {
		return h.sendError(c, "Training failed")
	}

	return h.send(c, map[string]interface{}{
		"type":   "complete",
		"result": result,
	})
}

func (h *TrainingStreamHandler) send(c *websocket.Conn, msg map[string]interface{}) error {
	return c.WriteJSON(msg)
}

func (h *TrainingStreamHandler) sendError(c *websocket.Conn, errorMsg string) error {
	return c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
