package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genre-tester/backend/internal/storage/models"
)

func newTestDB(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	require.NoError(t, c.InitSchema())
	t.Cleanup(func() { c.Close() })
	return c
}

func record(fileID, model string, confidence float64, created time.Time) *models.PredictionRecord {
	return &models.PredictionRecord{
		FileID:         fileID,
		Filename:       "track.wav",
		Model:          model,
		PredictedLabel: "jazz",
		Confidence:     confidence,
		ModelAccuracy:  0.83,
		Checksum:       "abc",
		SizeBytes:      1024,
		CreatedAt:      created,
	}
}

func TestClient_InsertAndGet(t *testing.T) {
	c := newTestDB(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, c.InsertPrediction(ctx, record("a.wav", "CNN", 0.9, created)))

	got, err := c.GetPrediction(ctx, "a.wav")
	require.NoError(t, err)
	assert.Equal(t, "CNN", got.Model)
	assert.Equal(t, "jazz", got.PredictedLabel)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
	assert.Equal(t, models.FeedbackNone, got.Feedback)
	assert.Equal(t, created.Unix(), got.CreatedAt.Unix())
	assert.Nil(t, got.FeedbackAt)
	assert.EqualValues(t, 1024, got.SizeBytes)
}

func TestClient_GetMissing(t *testing.T) {
	c := newTestDB(t)
	_, err := c.GetPrediction(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_DuplicateFileID(t *testing.T) {
	c := newTestDB(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, c.InsertPrediction(ctx, record("dup.wav", "CNN", 0.7, now)))
	assert.Error(t, c.InsertPrediction(ctx, record("dup.wav", "SVM", 0.7, now)))
}

func TestClient_SetFeedback(t *testing.T) {
	c := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, c.InsertPrediction(ctx, record("a.wav", "CNN", 0.9, time.Now())))

	at := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	found, err := c.SetFeedback(ctx, "a.wav", models.FeedbackIncorrect, at)
	require.NoError(t, err)
	assert.True(t, found)

	got, err := c.GetPrediction(ctx, "a.wav")
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackIncorrect, got.Feedback)
	require.NotNil(t, got.FeedbackAt)
	assert.Equal(t, at.Unix(), got.FeedbackAt.Unix())

	found, err = c.SetFeedback(ctx, "missing.wav", models.FeedbackCorrect, at)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClient_ListPredictionsNewestFirst(t *testing.T) {
	c := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"1.wav", "2.wav", "3.wav"} {
		require.NoError(t, c.InsertPrediction(ctx, record(id, "CNN", 0.8, base.Add(time.Duration(i)*time.Minute))))
	}

	all, err := c.ListPredictions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "3.wav", all[0].FileID)
	assert.Equal(t, "1.wav", all[2].FileID)

	limited, err := c.ListPredictions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "2.wav", limited[1].FileID)
}

func TestClient_FeedbackStats(t *testing.T) {
	c := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, c.InsertPrediction(ctx, record("a", "CNN", 0.9, now)))
	require.NoError(t, c.InsertPrediction(ctx, record("b", "CNN", 0.7, now)))
	require.NoError(t, c.InsertPrediction(ctx, record("c", "CNN", 0.8, now)))
	require.NoError(t, c.InsertPrediction(ctx, record("d", "SVM", 0.6, now)))
	_, err := c.SetFeedback(ctx, "a", models.FeedbackCorrect, now)
	require.NoError(t, err)
	_, err = c.SetFeedback(ctx, "b", models.FeedbackIncorrect, now)
	require.NoError(t, err)

	stats, err := c.FeedbackStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	cnn := stats[0]
	assert.Equal(t, "CNN", cnn.Model)
	assert.Equal(t, 3, cnn.Total)
	assert.Equal(t, 1, cnn.Correct)
	assert.Equal(t, 1, cnn.Incorrect)
	assert.Equal(t, 1, cnn.NoFeedback)
	assert.InDelta(t, 0.8, cnn.MeanConfidence, 1e-9)

	assert.Equal(t, "SVM", stats[1].Model)
	assert.Equal(t, 1, stats[1].NoFeedback)
}
