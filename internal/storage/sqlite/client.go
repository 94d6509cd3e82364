package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/storage/models"
	"github.com/genre-tester/backend/pkg/logger"
)

var ErrNotFound = models.ErrNotFound

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS predictions (
		file_id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		model TEXT NOT NULL,
		predicted_label TEXT NOT NULL,
		confidence REAL NOT NULL,
		model_accuracy REAL,
		checksum TEXT,
		size_bytes INTEGER,
		feedback TEXT NOT NULL DEFAULT 'none',
		created_at INTEGER NOT NULL,
		feedback_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at);
	CREATE INDEX IF NOT EXISTS idx_predictions_model ON predictions(model);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertPrediction(ctx context.Context, rec *models.PredictionRecord) error {
	query := `
		INSERT INTO predictions (file_id, filename, model, predicted_label, confidence, model_accuracy, checksum, size_bytes, feedback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	feedback := rec.Feedback
	if feedback == "" {
		feedback = models.FeedbackNone
	}

	_, err := c.db.ExecContext(ctx,
		query,
		rec.FileID,
		rec.Filename,
		rec.Model,
		rec.PredictedLabel,
		rec.Confidence,
		rec.ModelAccuracy,
		rec.Checksum,
		rec.SizeBytes,
		string(feedback),
		rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}

	logger.Debug("Prediction inserted", zap.String("file_id", rec.FileID), zap.String("model", rec.Model))
	return nil
}

func (c *Client) GetPrediction(ctx context.Context, fileID string) (*models.PredictionRecord, error) {
	query := `
		SELECT file_id, filename, model, predicted_label, confidence, model_accuracy, checksum, size_bytes, feedback, created_at, feedback_at
		FROM predictions WHERE file_id = ?
	`

	rec, err := scanPrediction(c.db.QueryRowContext(ctx, query, fileID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return rec, nil
}

// SetFeedback records a verdict and reports whether the prediction existed.
func (c *Client) SetFeedback(ctx context.Context, fileID string, feedback models.Feedback, at time.Time) (bool, error) {
	res, err := c.db.ExecContext(ctx,
		`UPDATE predictions SET feedback = ?, feedback_at = ? WHERE file_id = ?`,
		string(feedback), at.Unix(), fileID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to store feedback: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	logger.Debug("Feedback stored", zap.String("file_id", fileID), zap.String("feedback", string(feedback)), zap.Int64("rows", n))
	return n > 0, nil
}

// ListPredictions returns the newest predictions first. limit <= 0 returns all.
func (c *Client) ListPredictions(ctx context.Context, limit int) ([]models.PredictionRecord, error) {
	query := `
		SELECT file_id, filename, model, predicted_label, confidence, model_accuracy, checksum, size_bytes, feedback, created_at, feedback_at
		FROM predictions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var records []models.PredictionRecord
	for rows.Next() {
		rec, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate predictions: %w", err)
	}

	return records, nil
}

func (c *Client) FeedbackStats(ctx context.Context) ([]models.ModelFeedbackStats, error) {
	query := `
		SELECT model,
			COUNT(*),
			SUM(CASE WHEN feedback = 'correct' THEN 1 ELSE 0 END),
			SUM(CASE WHEN feedback = 'incorrect' THEN 1 ELSE 0 END),
			SUM(CASE WHEN feedback = 'none' THEN 1 ELSE 0 END),
			AVG(confidence)
		FROM predictions
		GROUP BY model
		ORDER BY model
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback stats: %w", err)
	}
	defer rows.Close()

	var stats []models.ModelFeedbackStats
	for rows.Next() {
		var s models.ModelFeedbackStats
		if err := rows.Scan(&s.Model, &s.Total, &s.Correct, &s.Incorrect, &s.NoFeedback, &s.MeanConfidence); err != nil {
			return nil, fmt.Errorf("failed to scan feedback stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrediction(row rowScanner) (*models.PredictionRecord, error) {
	var rec models.PredictionRecord
	var accuracy sql.NullFloat64
	var checksum sql.NullString
	var size sql.NullInt64
	var feedback string
	var createdAt int64
	var feedbackAt sql.NullInt64

	err := row.Scan(
		&rec.FileID,
		&rec.Filename,
		&rec.Model,
		&rec.PredictedLabel,
		&rec.Confidence,
		&accuracy,
		&checksum,
		&size,
		&feedback,
		&createdAt,
		&feedbackAt,
	)
	if err != nil {
		return nil, err
	}

	rec.ModelAccuracy = accuracy.Float64
	rec.Checksum = checksum.String
	rec.SizeBytes = size.Int64
	rec.Feedback = models.Feedback(feedback)
	rec.CreatedAt = time.Unix(createdAt, 0)
	if feedbackAt.Valid {
		t := time.Unix(feedbackAt.Int64, 0)
		rec.FeedbackAt = &t
	}
	return &rec, nil
}
