// Package app builds the service graph from configuration. The HTTP server
// and the genrectl CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/api"
	"github.com/genre-tester/backend/internal/cache/redis"
	"github.com/genre-tester/backend/internal/classifier"
	"github.com/genre-tester/backend/internal/dataset"
	"github.com/genre-tester/backend/internal/evaluation"
	"github.com/genre-tester/backend/internal/feedback"
	"github.com/genre-tester/backend/internal/history"
	"github.com/genre-tester/backend/internal/media"
	"github.com/genre-tester/backend/internal/prediction"
	"github.com/genre-tester/backend/internal/remote"
	"github.com/genre-tester/backend/internal/storage/models"
	"github.com/genre-tester/backend/internal/storage/sqlite"
	"github.com/genre-tester/backend/internal/training"
	"github.com/genre-tester/backend/pkg/circuitbreaker"
	"github.com/genre-tester/backend/pkg/clock"
	"github.com/genre-tester/backend/pkg/config"
	"github.com/genre-tester/backend/pkg/logger"
	"github.com/genre-tester/backend/pkg/randx"
)

// Options override the time and randomness sources, e.g. to skip the
// simulated latencies.
type Options struct {
	Clock clock.Clock
	Rand  randx.Source
}

type App struct {
	Config *config.Config
	Clock  clock.Clock
	Rand   randx.Source
	Tuning classifier.Tuning

	SQLite       *sqlite.Client
	Media        *media.Store
	HistoryStore training.HistoryStore
	Catalog      dataset.Catalog

	Predictor classifier.Predictor
	Feedback  feedback.Submitter
	Simulator *training.Simulator
	History   *history.Service
	Evaluator *evaluation.Evaluator

	checks  map[string]api.Pinger
	closers []func() error
}

func New(cfg *config.Config, opts Options) (*App, error) {
	a := &App{
		Config: cfg,
		Clock:  opts.Clock,
		Rand:   opts.Rand,
		Tuning: classifier.TuningFromConfig(cfg.Simulation.Tuning),
		checks: map[string]api.Pinger{},
	}
	if a.Clock == nil {
		a.Clock = clock.Real{}
	}
	if a.Rand == nil {
		a.Rand = randx.New(cfg.Simulation.Seed)
	}

	if err := a.initStorage(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initServices(); err != nil {
		a.Close()
		return nil, err
	}

	logger.Info("Application initialized",
		zap.String("predictor", cfg.Predictor.Mode),
		zap.String("history_store", cfg.History.Store),
		zap.String("history_source", string(a.History.DefaultSource())),
	)
	return a, nil
}

func (a *App) initStorage() error {
	cfg := a.Config

	db, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("failed to create SQLite client: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	if err := db.InitSchema(); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	a.SQLite = db
	a.checks["sqlite"] = db

	store, err := media.NewStore(cfg.Media.Dir)
	if err != nil {
		return err
	}
	a.Media = store
	logger.Info("Media store ready", zap.String("dir", store.Dir()))

	switch strings.ToLower(cfg.History.Store) {
	case "redis":
		rc, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.History.Key)
		if err != nil {
			return fmt.Errorf("failed to create Redis client: %w", err)
		}
		a.closers = append(a.closers, rc.Close)
		a.HistoryStore = rc
		a.checks["redis"] = rc
	case "memory", "":
		a.HistoryStore = training.NewMemoryStore()
	default:
		return fmt.Errorf("unknown history store %q", cfg.History.Store)
	}

	ttl := time.Duration(cfg.Dataset.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	roots := cfg.Dataset.Roots
	if len(roots) == 0 {
		roots = []string{cfg.Dataset.DefaultPath}
	}
	if cfg.Dataset.DefaultPath == "" {
		roots = append(roots, dataset.DefaultPath)
	}
	a.Catalog = dataset.NewRestricted(dataset.NewCached(dataset.Composite{
		dataset.FSCatalog{},
		dataset.NewMockCatalog(cfg.Dataset.DefaultPath),
	}, ttl), roots...)

	return nil
}

func (a *App) initServices() error {
	cfg := a.Config
	sim := cfg.Simulation

	switch strings.ToLower(cfg.Predictor.Mode) {
	case "mock", "":
		mock := classifier.NewMockPredictor(a.Clock, a.Rand, millis(sim.PredictDelayMs), a.Tuning)
		a.Predictor = prediction.NewService(mock, a.Media, a.SQLite, a.Clock)
		a.Feedback = feedback.NewRecorder(a.Clock, millis(sim.FeedbackDelayMs), a.SQLite, a.Media)
	case "remote":
		client := remote.NewClient(remote.Config{
			BaseURL:     cfg.Predictor.RemoteBaseURL,
			Timeout:     time.Duration(cfg.Predictor.TimeoutSec) * time.Second,
			MaxAttempts: cfg.Predictor.MaxAttempts,
			Breaker: circuitbreaker.Config{
				OnStateChange: func(name string, from, to circuitbreaker.State) {
					logger.Warn("Circuit breaker state changed",
						zap.String("name", name),
						zap.String("from", from.String()),
						zap.String("to", to.String()),
					)
				},
			},
		})
		// The backend keeps the upload itself.
		a.Predictor = prediction.NewService(client, nil, a.SQLite, a.Clock)
		a.Feedback = &recordedFeedback{next: client, records: a.SQLite, clock: a.Clock}
	default:
		return fmt.Errorf("unknown predictor mode %q", cfg.Predictor.Mode)
	}

	a.Simulator = training.NewSimulator(a.Clock, a.Rand, millis(sim.TrainDelayMs), a.Tuning, a.HistoryStore)

	source, err := history.ParseSource(cfg.History.Source)
	if err != nil {
		return err
	}
	a.History = history.NewService(a.SQLite, a.Clock, a.Rand, source, cfg.History.MockRows)
	a.Evaluator = evaluation.NewEvaluator(a.SQLite)

	return nil
}

func (a *App) Dependencies() api.Dependencies {
	return api.Dependencies{
		Predictor:      a.Predictor,
		Feedback:       a.Feedback,
		Trainer:        a.Simulator,
		Catalog:        a.Catalog,
		DefaultDataset: a.Config.Dataset.DefaultPath,
		History:        a.History,
		Evaluator:      a.Evaluator,
		Tuning:         a.Tuning,
		Checks:         a.checks,
	}
}

// Close releases stores in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// recordedFeedback forwards feedback to the remote backend and mirrors the
// verdict onto the local prediction record.
type recordedFeedback struct {
	next    feedback.Submitter
	records *sqlite.Client
	clock   clock.Clock
}

func (f *recordedFeedback) Submit(ctx context.Context, fileID string, correct bool) (*feedback.Result, error) {
	res, err := f.next.Submit(ctx, fileID, correct)
	if err != nil {
		return nil, err
	}
	if _, err := f.records.SetFeedback(ctx, fileID, models.FeedbackFor(correct), f.clock.Now()); err != nil {
		logger.Warn("Failed to mirror feedback locally", zap.String("file_id", fileID), zap.Error(err))
	}
	return res, nil
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
