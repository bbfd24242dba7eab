package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/nippon-flex/servicios-rapidos-ec/internal/jobs"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/messages"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/notify"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// MessageGenerator is satisfied by messages.Service.
type MessageGenerator interface {
	Generate(ctx context.Context, ev notify.Event) (*messages.Message, error)
}

// MessageJob handles TaskGenerateMessage.
type MessageJob struct {
	Messages MessageGenerator
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

func NewMessageJob(gen MessageGenerator, logger *slog.Logger, metrics *jobmetrics.Metrics) *MessageJob {
	return &MessageJob{Messages: gen, Logger: logger, Metrics: metrics}
}

// Handle generates the message. Text-generation failures are retried by
// asynq; events that can never succeed skip retries.
func (j *MessageJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Messages == nil {
		return errors.New("message job: handler not configured")
	}
	var ev notify.Event
	if uerr := json.Unmarshal(t.Payload(), &ev); uerr != nil {
		return fmt.Errorf("decode event: %v: %w", uerr, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskGenerateMessage)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger().With(
		slog.String("kind", string(ev.Kind)),
		slog.String("entity", ev.Entity),
		slog.Int64("entity_id", ev.EntityID),
	)

	msg, genErr := j.Messages.Generate(ctx, ev)
	switch {
	case genErr == nil:
		j.metrics().AddMessage(string(ev.Kind), "ok")
		logger.Info("message stored", slog.Int64("message_id", msg.ID))
		return nil
	case errors.Is(genErr, shared.ErrNotFound), errors.Is(genErr, shared.ErrValidation):
		j.metrics().AddMessage(string(ev.Kind), "dropped")
		logger.Warn("message dropped", slog.Any("error", genErr))
		return fmt.Errorf("%v: %w", genErr, asynq.SkipRetry)
	default:
		j.metrics().AddMessage(string(ev.Kind), "failed")
		logger.Error("message generation failed", slog.Any("error", genErr))
		return genErr
	}
}

func (j *MessageJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskGenerateMessage))
	}
	return slog.Default().With(slog.String("job", TaskGenerateMessage))
}

func (j *MessageJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
