package registrations

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/aura-webinar/workshops/internal/abuse"
	"github.com/aura-webinar/workshops/internal/eligibility"
	"github.com/aura-webinar/workshops/internal/kvscope"
	"github.com/aura-webinar/workshops/internal/models"
	"github.com/aura-webinar/workshops/internal/storage"
)

// State is the terminal state of one submission.
type State string

const (
	StateSucceeded State = "SUCCEEDED"
	StateRejected  State = "REJECTED"
	StateFailed    State = "FAILED"
)

// Outcome is the result of Submit. Record is set only on success; Fields only
// for validation rejections.
type Outcome struct {
	State    State
	Kind     Kind
	Message  string
	Fields   FieldErrors
	Record   *models.Registration
	Warning  string
	Deadline *time.Time
	Err      error
}

// Confirmer is told about every stored registration. Failures never affect the outcome.
type Confirmer interface {
	Confirm(ctx context.Context, ev models.WorkshopEvent, rec models.Registration) error
}

// Workflow runs a form submission through validation, the eligibility and
// abuse gates, and storage.
type Workflow struct {
	store     storage.Port
	engine    *eligibility.Engine
	counter   *abuse.Counter
	confirmer Confirmer
	logger    *zap.Logger
}

// NewWorkflow creates a workflow. confirmer may be nil.
func NewWorkflow(store storage.Port, engine *eligibility.Engine, counter *abuse.Counter, confirmer Confirmer, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = storage.Unconfigured{}
	}
	return &Workflow{
		store:     store,
		engine:    engine,
		counter:   counter,
		confirmer: confirmer,
		logger:    logger,
	}
}

// Submit processes one submission. scope holds the caller's abuse counter state.
func (w *Workflow) Submit(ctx context.Context, form Form, scope kvscope.Scope) Outcome {
	form = Normalize(form)
	log := w.logger.With(zap.String("event_id", form.EventID))

	if errs := Validate(form); len(errs) > 0 {
		return Outcome{State: StateRejected, Kind: KindValidation, Message: MsgValidation, Fields: errs, Err: errs}
	}

	status := w.engine.CheckStatus(form.EventID)
	if status.IsOpen && status.Event == nil {
		status = eligibility.Status{Reason: eligibility.ReasonNotFound}
	}
	if !status.IsOpen {
		log.Info("registration closed", zap.String("reason", status.Reason))
		return Outcome{
			State:    StateRejected,
			Kind:     KindEligibilityClosed,
			Message:  "Registration is closed: " + status.Reason,
			Deadline: status.Deadline,
		}
	}
	ev := *status.Event

	decision := w.counter.CanSubmit(ctx, scope)
	if !decision.Allowed {
		log.Info("submission locked out")
		return Outcome{State: StateRejected, Kind: KindAbuseLockout, Message: decision.Message}
	}
	out := w.persist(ctx, log, ev, form)
	out.Warning = decision.Message
	out.Deadline = status.Deadline
	return out
}

func (w *Workflow) persist(ctx context.Context, log *zap.Logger, ev models.WorkshopEvent, form Form) Outcome {
	existing, err := w.store.CheckExistingRegistration(ctx, form.StudentEmail, ev.ID)
	switch {
	case errors.Is(err, storage.ErrPermissionDenied):
		log.Warn("duplicate check not permitted, relying on insert uniqueness", zap.Error(err))
	case err != nil:
		return w.failed(log, err)
	case existing != nil:
		return Outcome{State: StateRejected, Kind: KindDuplicate, Message: MsgDuplicate}
	}

	count, err := w.store.GetRegistrationCount(ctx, ev.ID)
	switch {
	case errors.Is(err, storage.ErrPermissionDenied):
		log.Warn("registration count not permitted, assuming 0", zap.Error(err))
		count = 0
	case err != nil:
		return w.failed(log, err)
	}

	rec := models.Registration{
		StudentName:       form.StudentName,
		StudentEmail:      form.StudentEmail,
		StudentGrade:      models.Grade(form.StudentGrade),
		StudentExperience: form.StudentExperience,
		ParentName:        form.ParentName,
		ParentEmail:       form.ParentEmail,
		ParentPhone:       FormatPhone(form.ParentPhone),
		WorkshopLevel:     form.WorkshopLevel,
		EventID:           ev.ID,
		Motivation:        form.Motivation,
		Status:            models.StatusRegistered,
	}
	if rec.WorkshopLevel == "" {
		rec.WorkshopLevel = ev.Level
	}
	if count >= ev.MaxCapacity {
		rec.Status = models.StatusWaitlisted
	}

	inserted, err := w.store.InsertRegistration(ctx, rec)
	if errors.Is(err, storage.ErrDuplicate) {
		return Outcome{State: StateRejected, Kind: KindDuplicate, Message: MsgDuplicate}
	}
	if err != nil {
		return w.failed(log, err)
	}

	log.Info("registration stored",
		zap.String("registration_id", inserted.ID.String()),
		zap.String("status", string(inserted.Status)),
		zap.Int("registered_before", count),
	)
	if w.confirmer != nil {
		if err := w.confirmer.Confirm(ctx, ev, *inserted); err != nil {
			log.Warn("confirmation not queued", zap.Error(err), zap.String("registration_id", inserted.ID.String()))
		}
	}
	return Outcome{State: StateSucceeded, Record: inserted}
}

func (w *Workflow) failed(log *zap.Logger, err error) Outcome {
	kind, msg := Classify(err)
	log.Error("registration failed", zap.String("kind", string(kind)), zap.Error(err))
	return Outcome{State: StateFailed, Kind: kind, Message: msg, Err: err}
}
