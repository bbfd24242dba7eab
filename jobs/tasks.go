package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/notify"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskGenerateMessage writes the customer message for a lifecycle event.
	TaskGenerateMessage = "messages:generate"
	// TaskExpireQuotes moves overdue SENT quotes to EXPIRED.
	TaskExpireQuotes = "quotes:expire"

	defaultExpireBatch = 200
)

var taskNamespace = uuid.MustParse("5b1f0c52-8e0a-4f8e-9a57-6f2b7f3d9c11")

// EventTaskID is stable for the same event, so a repeated publication is
// rejected by asynq instead of generating a second message.
func EventTaskID(ev notify.Event) string {
	return uuid.NewSHA1(taskNamespace, []byte(ev.Key())).String()
}

// NewGenerateMessageTask constructs the task for ev.
func NewGenerateMessageTask(ev notify.Event) (*asynq.Task, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGenerateMessage, body,
		asynq.Queue(QueueDefault),
		asynq.TaskID(EventTaskID(ev)),
		asynq.MaxRetry(5),
		asynq.Retention(24*time.Hour),
	), nil
}

// ExpireQuotesPayload bounds one sweep.
type ExpireQuotesPayload struct {
	Limit int `json:"limit"`
}

// NewExpireQuotesTask constructs an expiry sweep task.
func NewExpireQuotesTask(limit int) (*asynq.Task, error) {
	if limit <= 0 {
		limit = defaultExpireBatch
	}
	body, err := json.Marshal(ExpireQuotesPayload{Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExpireQuotes, body, asynq.Queue(QueueDefault), asynq.MaxRetry(1)), nil
}
