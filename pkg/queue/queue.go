package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueConfirmations is the Redis list key for registration confirmation jobs.
	QueueConfirmations = "worker:confirmations"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second

	// dequeueWait bounds each BLPOP so a cancelled context is noticed.
	dequeueWait = 5 * time.Second
)

// ErrWrongJobType is returned when decoding a payload from a job of another type.
var ErrWrongJobType = errors.New("wrong job type")

// JobType identifies the job kind.
type JobType string

const (
	JobTypeConfirmation JobType = "registration_confirmation"
)

// ConfirmationPayload is the payload for registration confirmation jobs.
type ConfirmationPayload struct {
	RegistrationID uuid.UUID `json:"registration_id"`
	EventID        string    `json:"event_id"`
	EventName      string    `json:"event_name"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	Status         string    `json:"status"`
	StudentName    string    `json:"student_name"`
	StudentEmail   string    `json:"student_email"`
	ParentName     string    `json:"parent_name"`
	ParentEmail    string    `json:"parent_email"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewJob wraps payload in a fresh envelope.
func NewJob(typ JobType, payload any) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      typ,
		Payload:   body,
		CreatedAt: time.Now(),
	}, nil
}

// DecodeConfirmation extracts the confirmation payload from job.
func DecodeConfirmation(job *Job) (ConfirmationPayload, error) {
	var p ConfirmationPayload
	if job.Type != JobTypeConfirmation {
		return p, fmt.Errorf("%w: %s", ErrWrongJobType, job.Type)
	}
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return p, fmt.Errorf("unmarshal payload: %w", err)
	}
	return p, nil
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueConfirmation enqueues a confirmation job.
func (q *Queue) EnqueueConfirmation(ctx context.Context, payload ConfirmationPayload) error {
	job, err := NewJob(JobTypeConfirmation, payload)
	if err != nil {
		return err
	}
	if err := q.push(ctx, QueueConfirmations, job); err != nil {
		return err
	}
	q.logger.Debug("enqueued confirmation job", zap.String("job_id", job.ID), zap.String("registration_id", payload.RegistrationID.String()))
	return nil
}

func (q *Queue) push(ctx context.Context, key string, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	return nil
}

// Dequeue waits briefly for a job. It returns nil, "", nil when none arrived.
func (q *Queue) Dequeue(ctx context.Context) (*Job, string, error) {
	result, err := q.client.BLPop(ctx, dequeueWait, QueueConfirmations).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", nil
		}
		return nil, "", err
	}
	if len(result) < 2 {
		return nil, "", nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, "", nil
	}
	return &job, result[0], nil
}

// Retry re-enqueues a job with incremented attempt. If attempt >= MaxRetries, pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	if job.Attempt >= MaxRetries {
		if err := q.push(ctx, QueueDLQ, job); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.push(ctx, QueueConfirmations, job); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}
