package worker

import (
	"context"

	"github.com/aura-webinar/workshops/internal/models"
	"github.com/aura-webinar/workshops/pkg/queue"
)

// Enqueuer is the part of queue.Queue the confirmer needs.
type Enqueuer interface {
	EnqueueConfirmation(ctx context.Context, payload queue.ConfirmationPayload) error
}

// QueueConfirmer hands stored registrations to the confirmation queue.
type QueueConfirmer struct {
	Queue Enqueuer
}

// Confirm enqueues a confirmation job for rec.
func (c QueueConfirmer) Confirm(ctx context.Context, ev models.WorkshopEvent, rec models.Registration) error {
	return c.Queue.EnqueueConfirmation(ctx, PayloadFor(ev, rec))
}

// PayloadFor builds the job payload for a stored registration.
func PayloadFor(ev models.WorkshopEvent, rec models.Registration) queue.ConfirmationPayload {
	name := ev.Name
	if name == "" {
		name = ev.ID
	}
	return queue.ConfirmationPayload{
		RegistrationID: rec.ID,
		EventID:        rec.EventID,
		EventName:      name,
		StartDate:      ev.StartDate,
		EndDate:        ev.EndDate,
		Status:         string(rec.Status),
		StudentName:    rec.StudentName,
		StudentEmail:   rec.StudentEmail,
		ParentName:     rec.ParentName,
		ParentEmail:    rec.ParentEmail,
	}
}
