package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/nippon-flex/servicios-rapidos-ec/internal/jobs"
)

// QuoteExpirer is satisfied by quotes.Service.
type QuoteExpirer interface {
	ExpireOverdue(ctx context.Context, limit int) (int, error)
}

// QuoteExpiryJob handles TaskExpireQuotes.
type QuoteExpiryJob struct {
	Quotes  QuoteExpirer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

func NewQuoteExpiryJob(quotes QuoteExpirer, logger *slog.Logger, metrics *jobmetrics.Metrics) *QuoteExpiryJob {
	return &QuoteExpiryJob{Quotes: quotes, Logger: logger, Metrics: metrics}
}

func (j *QuoteExpiryJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Quotes == nil {
		return errors.New("quote expiry: handler not configured")
	}
	payload := ExpireQuotesPayload{Limit: defaultExpireBatch}
	if len(t.Payload()) > 0 {
		if uerr := json.Unmarshal(t.Payload(), &payload); uerr != nil {
			return fmt.Errorf("decode payload: %v: %w", uerr, asynq.SkipRetry)
		}
	}
	if payload.Limit <= 0 {
		payload.Limit = defaultExpireBatch
	}

	tracker := j.metrics().Track(TaskExpireQuotes)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger()
	start := time.Now()
	expired, err := j.Quotes.ExpireOverdue(ctx, payload.Limit)
	j.metrics().AddExpiredQuotes(expired)
	if err != nil {
		logger.Error("expire quotes", slog.Int("expired", expired), slog.Any("error", err))
		return err
	}
	logger.Info("completed quote expiry", slog.Int("expired", expired), slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *QuoteExpiryJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskExpireQuotes))
	}
	return slog.Default().With(slog.String("job", TaskExpireQuotes))
}

func (j *QuoteExpiryJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
