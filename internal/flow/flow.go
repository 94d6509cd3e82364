// Package flow drives the upload -> predict -> feedback sequence of the
// upload page. A new upload supersedes whatever is still pending, and a
// completion that arrives after being superseded is dropped.
package flow

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/classifier"
	"github.com/genre-tester/backend/internal/feedback"
	"github.com/genre-tester/backend/pkg/logger"
)

type State string

const (
	Idle            State = "idle"
	Uploading       State = "uploading"
	PredictionShown State = "prediction_shown"
	Error           State = "error"
	FeedbackPending State = "feedback_pending"
	FeedbackShown   State = "feedback_shown"
)

// ErrSuperseded is returned to a caller whose request was overtaken by a
// newer one. The flow state was left untouched.
var ErrSuperseded = errors.New("request superseded")

type Snapshot struct {
	State      State
	Model      classifier.ModelID
	Filename   string
	Prediction *classifier.PredictionResult
	Message    string
	Err        error
}

type Flow struct {
	predictor classifier.Predictor
	feedback  feedback.Submitter

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	snap   Snapshot
}

func New(predictor classifier.Predictor, submitter feedback.Submitter) *Flow {
	return &Flow{
		predictor: predictor,
		feedback:  submitter,
		snap:      Snapshot{State: Idle},
	}
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

// begin cancels the pending request, if any, and returns a context and
// generation for the new one. Callers hold f.mu.
func (f *Flow) begin(ctx context.Context) (context.Context, uint64) {
	if f.cancel != nil {
		f.cancel()
	}
	f.gen++
	ctx, f.cancel = context.WithCancel(ctx)
	return ctx, f.gen
}

func (f *Flow) current(gen uint64) bool {
	if gen != f.gen {
		return false
	}
	f.cancel()
	f.cancel = nil
	return true
}

// Upload without a file is a no-op: nothing pending is canceled and the
// shown state stays as it is.
func (f *Flow) Upload(ctx context.Context, req classifier.PredictRequest) (Snapshot, error) {
	f.mu.Lock()
	if len(req.Data) == 0 {
		snap := f.snap
		f.mu.Unlock()
		return snap, classifier.ErrNoFile
	}
	reqCtx, gen := f.begin(ctx)
	f.snap = Snapshot{State: Uploading, Model: req.Model, Filename: req.Filename}
	f.mu.Unlock()

	res, err := f.predictor.Predict(reqCtx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.current(gen) {
		logger.Debug("Discarding stale prediction", zap.String("filename", req.Filename))
		return f.snap, ErrSuperseded
	}

	if err != nil {
		f.snap.State = Error
		f.snap.Err = err
		f.snap.Message = err.Error()
		return f.snap, err
	}
	f.snap.State = PredictionShown
	f.snap.Prediction = res
	return f.snap, nil
}

// Feedback submits a verdict on the shown prediction. Without one it fails
// at once with feedback.ErrMissingFileID.
func (f *Flow) Feedback(ctx context.Context, correct bool) (Snapshot, error) {
	f.mu.Lock()
	if f.snap.Prediction == nil || f.snap.Prediction.FileID == "" ||
		(f.snap.State != PredictionShown && f.snap.State != FeedbackShown) {
		f.snap.Message = feedback.ErrMissingFileID.Error()
		snap := f.snap
		f.mu.Unlock()
		return snap, feedback.ErrMissingFileID
	}
	reqCtx, gen := f.begin(ctx)
	fileID := f.snap.Prediction.FileID
	f.snap.State = FeedbackPending
	f.snap.Message = ""
	f.mu.Unlock()

	res, err := f.feedback.Submit(reqCtx, fileID, correct)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.current(gen) {
		return f.snap, ErrSuperseded
	}

	if err != nil {
		f.snap.State = Error
		f.snap.Err = err
		f.snap.Message = err.Error()
		return f.snap, err
	}
	f.snap.State = FeedbackShown
	f.snap.Message = res.Message
	return f.snap, nil
}
