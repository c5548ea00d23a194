package worker

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/aura-webinar/workshops/internal/models"
	"github.com/aura-webinar/workshops/pkg/queue"
)

var (
	registeredBody = template.Must(template.New("registered").Parse(`Hi {{.ParentName}},

{{.StudentName}} is registered for {{.EventName}}.
The workshop runs from {{.StartDate}} to {{.EndDate}}.

Registration ID: {{.RegistrationID}}
`))
	waitlistedBody = template.Must(template.New("waitlisted").Parse(`Hi {{.ParentName}},

{{.EventName}} is full, so {{.StudentName}} has been placed on the waitlist.
We will let you know if a spot becomes available.

Registration ID: {{.RegistrationID}}
`))
)

// RenderConfirmation builds the email sent to the parent and student for a confirmation job.
func RenderConfirmation(p queue.ConfirmationPayload) (Message, error) {
	tmpl, subject := registeredBody, "Registration confirmed: "+p.EventName
	if p.Status == string(models.StatusWaitlisted) {
		tmpl, subject = waitlistedBody, "Waitlist confirmation: "+p.EventName
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, p); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	var to []string
	for _, addr := range []string{p.ParentEmail, p.StudentEmail} {
		if addr != "" {
			to = append(to, addr)
		}
	}
	return Message{To: to, Subject: subject, Body: body.String()}, nil
}

// JobQueue is the part of queue.Queue the processor consumes.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// ConfirmationProcessor sends confirmation emails for queued registrations.
type ConfirmationProcessor struct {
	queue   JobQueue
	sender  Sender
	logger  *zap.Logger
	backoff time.Duration
}

// NewConfirmationProcessor creates a confirmation processor.
func NewConfirmationProcessor(q JobQueue, sender Sender, logger *zap.Logger) *ConfirmationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfirmationProcessor{queue: q, sender: sender, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one confirmation job.
func (p *ConfirmationProcessor) Process(ctx context.Context, job *queue.Job) error {
	payload, err := queue.DecodeConfirmation(job)
	if err != nil {
		return err
	}
	msg, err := RenderConfirmation(payload)
	if err != nil {
		return err
	}
	if err := p.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	p.logger.Info("confirmation sent",
		zap.String("registration_id", payload.RegistrationID.String()),
		zap.String("event_id", payload.EventID),
		zap.String("status", payload.Status),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ConfirmationProcessor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			p.logger.Info("confirmation worker stopping")
			return
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Warn("dequeue error", zap.Error(err))
				p.pause(ctx)
			}
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.pause(ctx)
		}
	}
}

func (p *ConfirmationProcessor) pause(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
