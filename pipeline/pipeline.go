// Package pipeline runs one collect, persist and validate cycle and reports
// how it ended.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/hnsort/article"
	"github.com/pevans/hnsort/collector"
	"github.com/pevans/hnsort/history"
	"github.com/pevans/hnsort/ordering"
	"github.com/sirupsen/logrus"
)

// ErrPersist is matched by every error from the persist stage.
var ErrPersist = errors.New("failed to persist items")

// Collector assembles a batch of exactly target items.
type Collector interface {
	Collect(ctx context.Context, target int) ([]article.Item, error)
}

// Sink stores a whole batch.
type Sink interface {
	Write(items []article.Item) error
}

// HistoryStore records finished runs.
type HistoryStore interface {
	RecordRun(run history.Run, items []article.Item) error
}

// MetricsRecorder records finished runs.
type MetricsRecorder interface {
	RecordRun(outcome string, duration time.Duration, finishedAt time.Time)
}

// Runner wires the three stages together. Collector and Sink are required;
// the rest are optional.
type Runner struct {
	Collector Collector
	Sink      Sink
	Target    int

	// Source and OutputPath are stored with the run history
	Source     string
	OutputPath string

	Logger   logrus.FieldLogger
	Recorder MetricsRecorder
	History  HistoryStore

	// Now defaults to time.Now
	Now func() time.Time
}

// Report describes one finished run.
type Report struct {
	RunID      uuid.UUID
	Items      []article.Item
	Err        error
	Kind       Kind
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Collect runs the collection stage.
func (r *Runner) Collect(ctx context.Context) ([]article.Item, error) {
	return r.Collector.Collect(ctx, r.Target)
}

// Persist runs the persist stage. Errors match ErrPersist.
func (r *Runner) Persist(items []article.Item) error {
	if err := r.Sink.Write(items); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Validate runs the validation stage on a persisted batch.
func (r *Runner) Validate(items []article.Item) error {
	if r.Target > 0 {
		return ordering.ValidateBatch(items, r.Target)
	}
	return ordering.Validate(items)
}

// Run collects a batch, persists it, then validates it. The batch is written
// before validation so a badly ordered batch can still be inspected. A
// collection failure ends the run before anything is written.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.New(),
		StartedAt: r.now(),
	}
	logger := r.logger().WithField("run_id", report.RunID)

	logger.WithField("target", r.Target).Info("Starting run")

	err := r.run(ctx, report, logger)
	r.finish(report, err, logger)

	return report, err
}

func (r *Runner) run(ctx context.Context, report *Report, logger logrus.FieldLogger) error {
	items, err := r.Collect(ctx)
	if err != nil {
		return err
	}
	if err := r.checkSize(items); err != nil {
		return err
	}
	report.Items = items
	logger.WithField("collected", len(items)).Info("Collected items")

	if err := r.Persist(items); err != nil {
		return err
	}
	logger.WithField("output", r.OutputPath).Debug("Persisted items")

	return r.Validate(items)
}

// checkSize rejects a batch that is not exactly Target items long, so nothing
// downstream ever sees a partial batch.
func (r *Runner) checkSize(items []article.Item) error {
	if r.Target <= 0 || len(items) == r.Target {
		return nil
	}
	reason := collector.ErrShortBatch
	if len(items) > r.Target {
		reason = ordering.ErrBatchSize
	}
	return &collector.CollectionError{
		Collected: len(items),
		Want:      r.Target,
		URL:       r.Source,
		Err:       reason,
	}
}

// finish fills in the report outcome and records it. History and metrics
// failures are logged and never replace the run's own error.
func (r *Runner) finish(report *Report, err error, logger logrus.FieldLogger) {
	report.FinishedAt = r.now()
	report.Err = err
	report.Kind = Classify(err)

	entry := logger.WithFields(logrus.Fields{
		"outcome":  report.Kind.String(),
		"duration": report.Duration().String(),
	})
	if err != nil {
		entry.WithError(err).Error("Run failed")
	} else {
		entry.Info("Run succeeded")
	}

	if r.History != nil {
		run := history.Run{
			RunID:      report.RunID,
			Source:     r.Source,
			Target:     r.Target,
			Collected:  len(report.Items),
			Outcome:    report.Kind.String(),
			OutputPath: r.OutputPath,
			StartedAt:  report.StartedAt,
			FinishedAt: report.FinishedAt,
		}
		if err != nil {
			msg := err.Error()
			run.Error = &msg
		}
		if herr := r.History.RecordRun(run, report.Items); herr != nil {
			logger.WithError(herr).Warn("Failed to record run history")
		}
	}

	if r.Recorder != nil {
		r.Recorder.RecordRun(report.Kind.String(), report.Duration(), report.FinishedAt)
	}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Logger != nil {
		return r.Logger
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard
}

// Kind tags how a run ended.
type Kind int

const (
	KindNone Kind = iota
	KindCollection
	KindInvalidAge
	KindOutOfOrder
	KindPersist
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "success"
	case KindCollection:
		return "collection"
	case KindInvalidAge:
		return "invalid_age"
	case KindOutOfOrder:
		return "out_of_order"
	case KindPersist:
		return "persist"
	default:
		return "error"
	}
}

// Classify maps a run error to its Kind. A short batch caught by the size
// check counts as a collection failure.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, collector.ErrCollection), errors.Is(err, ordering.ErrBatchSize):
		return KindCollection
	case errors.Is(err, ordering.ErrInvalidAgeFormat):
		return KindInvalidAge
	case errors.Is(err, ordering.ErrOutOfOrder):
		return KindOutOfOrder
	case errors.Is(err, ErrPersist):
		return KindPersist
	default:
		return KindOther
	}
}
