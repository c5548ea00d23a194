package registrations

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/workshops/internal/abuse"
	"github.com/aura-webinar/workshops/internal/eligibility"
	"github.com/aura-webinar/workshops/internal/events"
	"github.com/aura-webinar/workshops/internal/kvscope"
	"github.com/aura-webinar/workshops/internal/models"
	"github.com/aura-webinar/workshops/internal/storage"
	"github.com/aura-webinar/workshops/internal/storage/memory"
	"github.com/aura-webinar/workshops/internal/storage/storagetest"
)

const testEventID = "youthai-explorer-2025-nov"

var beforeDeadline = time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)

// spyPort counts calls and can inject errors in front of a memory store.
type spyPort struct {
	*memory.Store
	checks, counts, inserts int
	checkErr, countErr      error
	insertErr               error
}

func newSpyPort() *spyPort { return &spyPort{Store: memory.New()} }

func (s *spyPort) CheckExistingRegistration(ctx context.Context, email, eventID string) (*models.Registration, error) {
	s.checks++
	if s.checkErr != nil {
		return nil, s.checkErr
	}
	return s.Store.CheckExistingRegistration(ctx, email, eventID)
}

func (s *spyPort) GetRegistrationCount(ctx context.Context, eventID string) (int, error) {
	s.counts++
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.Store.GetRegistrationCount(ctx, eventID)
}

func (s *spyPort) InsertRegistration(ctx context.Context, rec models.Registration) (*models.Registration, error) {
	s.inserts++
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	return s.Store.InsertRegistration(ctx, rec)
}

func (s *spyPort) calls() int { return s.checks + s.counts + s.inserts }

type recordingConfirmer struct {
	got []models.Registration
	err error
}

func (r *recordingConfirmer) Confirm(_ context.Context, _ models.WorkshopEvent, rec models.Registration) error {
	r.got = append(r.got, rec)
	return r.err
}

type fixture struct {
	wf        *Workflow
	catalog   *events.Catalog
	engine    *eligibility.Engine
	counter   *abuse.Counter
	scopes    *kvscope.MemoryStore
	confirmer *recordingConfirmer
}

func newFixture(t *testing.T, store storage.Port, now time.Time) fixture {
	t.Helper()
	catalog, err := events.NewCatalog(models.WorkshopEvent{
		ID:           testEventID,
		Name:         "Explorer",
		Level:        "Explorer Level",
		MaxCapacity:  12,
		StartDate:    "2025-11-15",
		EndDate:      "2025-12-20",
		Deadline:     "2025-11-11",
		DeadlineTime: "23:59",
	})
	require.NoError(t, err)
	clock := func() time.Time { return now }
	engine := eligibility.NewEngine(catalog, eligibility.WithClock(clock), eligibility.WithLocation(time.UTC))
	counter := abuse.NewCounter(clock, nil)
	confirmer := &recordingConfirmer{}
	return fixture{
		wf:        NewWorkflow(store, engine, counter, confirmer, nil),
		catalog:   catalog,
		engine:    engine,
		counter:   counter,
		scopes:    kvscope.NewMemoryStore(time.Hour),
		confirmer: confirmer,
	}
}

func seed(t *testing.T, store storage.Port, n int, status models.RegistrationStatus) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := store.InsertRegistration(context.Background(),
			storagetest.Registration(testEventID, fmt.Sprintf("seed-%s-%d@example.com", status, i), status))
		require.NoError(t, err)
	}
}

func TestSubmit_RegistersBelowCapacity(t *testing.T) {
	store := newSpyPort()
	seed(t, store.Store, 11, models.StatusRegistered)
	f := newFixture(t, store, beforeDeadline)

	out := f.wf.Submit(context.Background(), validForm(), f.scopes.Scope("c1"))

	require.Equal(t, StateSucceeded, out.State, out.Message)
	require.Equal(t, models.StatusRegistered, out.Record.Status)
	require.Equal(t, "(555) 123-4567", out.Record.ParentPhone)
	require.Equal(t, "ada@example.com", out.Record.StudentEmail)
	require.NotNil(t, out.Deadline)
	require.Len(t, f.confirmer.got, 1)
}

func TestSubmit_WaitlistsAtCapacity(t *testing.T) {
	store := newSpyPort()
	seed(t, store.Store, 12, models.StatusRegistered)
	seed(t, store.Store, 3, models.StatusWaitlisted)
	f := newFixture(t, store, beforeDeadline)

	out := f.wf.Submit(context.Background(), validForm(), f.scopes.Scope("c1"))

	require.Equal(t, StateSucceeded, out.State)
	require.Equal(t, models.StatusWaitlisted, out.Record.Status)
}

func TestSubmit_WaitlistedDoNotConsumeCapacity(t *testing.T) {
	store := newSpyPort()
	seed(t, store.Store, 11, models.StatusRegistered)
	seed(t, store.Store, 5, models.StatusWaitlisted)
	f := newFixture(t, store, beforeDeadline)

	out := f.wf.Submit(context.Background(), validForm(), f.scopes.Scope("c1"))
	require.Equal(t, models.StatusRegistered, out.Record.Status)
}

func TestSubmit_DuplicateNeverInsertsTwice(t *testing.T) {
	store := newSpyPort()
	f := newFixture(t, store, beforeDeadline)
	ctx := context.Background()

	first := f.wf.Submit(ctx, validForm(), f.scopes.Scope("c1"))
	require.Equal(t, StateSucceeded, first.State)

	again := validForm()
	again.StudentEmail = "  ADA@example.com"
	second := f.wf.Submit(ctx, again, f.scopes.Scope("c2"))

	require.Equal(t, StateRejected, second.State)
	require.Equal(t, KindDuplicate, second.Kind)
	require.Equal(t, MsgDuplicate, second.Message)
	require.Equal(t, 1, store.inserts)
	require.Len(t, f.confirmer.got, 1)
}

func TestSubmit_ClosedEventNeverTouchesStorage(t *testing.T) {
	store := newSpyPort()
	f := newFixture(t, store, time.Date(2025, 11, 12, 0, 0, 0, 0, time.UTC))

	out := f.wf.Submit(context.Background(), validForm(), f.scopes.Scope("c1"))

	require.Equal(t, StateRejected, out.State)
	require.Equal(t, KindEligibilityClosed, out.Kind)
	require.Equal(t, "Registration is closed: "+eligibility.ReasonDeadlinePassed, out.Message)
	require.Zero(t, store.calls())
}

func TestSubmit_DeadlineMinuteIsStillOpen(t *testing.T) {
	store := newSpyPort()
	f := newFixture(t, store, time.Date(2025, 11, 11, 23, 59, 59, 0, time.UTC))

	out := f.wf.Submit(context.Background(), validForm(), f.scopes.Scope("c1"))
	require.Equal(t, StateSucceeded, out.State)
}

func TestSubmit_UnknownEventRejected(t *testing.T) {
	store := newSpyPort()
	f := newFixture(t, store, beforeDeadline)
	form := validForm()
	form.EventID = "nope"

	out := f.wf.Submit(context.Background(), form, f.scopes.Scope("c1"))

	require.Equal(t, KindEligibilityClosed, out.Kind)
	require.Contains(t, out.Message, eligibility.ReasonNotFound)
	require.Zero(t, store.calls())
}

func TestSubmit_InvalidFormCostsNoAttempt(t *testing.T) {
	store := newSpyPort()
	f := newFixture(t, store, beforeDeadline)
	scope := f.scopes.Scope("c1")
	form := validForm()
	form.ParentPhone = "123"

	out := f.wf.Submit(context.Background(), form, scope)

	require.Equal(t, StateRejected, out.State)
	require.Equal(t, KindValidation, out.Kind)
	require.True(t, out.Fields.Has("parentPhone"))
	require.Zero(t, store.calls())
	require.Zero(t, f.counter.Status(context.Background(), scope).Attempts)
}

func TestSubmit_LockoutAfterRepeatedAttempts(t *testing.T) {
	store := newSpyPort()
	f := newFixture(t, store, beforeDeadline)
	scope := f.scopes.Scope("c1")
	ctx := context.Background()

	var last Outcome
	for i := 0; i < abuse.MaxAttempts; i++ {
		form := validForm()
		form.StudentEmail = fmt.Sprintf("student%d@example.com", i)
		last = f.wf.Submit(ctx, form, scope)
	}

	require.Equal(t, StateRejected, last.State)
	require.Equal(t, KindAbuseLockout, last.Kind)
	require.Contains(t, last.Message, "Too many registration attempts")
	require.Equal(t, abuse.MaxAttempts-1, store.inserts)

	other := f.wf.Submit(ctx, validForm(), f.scopes.Scope("c2"))
	require.Equal(t, StateSucceeded, other.State)
}

func TestSubmit_WarningCarriedOnSuccess(t *testing.T) {
	store := newSpyPort()
	f := newFixture(t, store, beforeDeadline)
	scope := f.scopes.Scope("c1")
	ctx := context.Background()

	var last Outcome
	for i := 0; i < 3; i++ {
		form := validForm()
		form.StudentEmail = fmt.Sprintf("student%d@example.com", i)
		last = f.wf.Submit(ctx, form, scope)
	}
	require.Equal(t, StateSucceeded, last.State)
	require.Equal(t, "Warning: 2 attempts remaining.", last.Warning)
}

func TestSubmit_PermissionDeniedReadsFallBack(t *testing.T) {
	store := newSpyPort()
	seed(t, store.Store, 12, models.StatusRegistered)
	store.checkErr = fmt.Errorf("check: %w", storage.ErrPermissionDenied)
	store.countErr = fmt.Errorf("count: %w", storage.ErrPermissionDenied)
	f := newFixture(t, store, beforeDeadline)

	out := f.wf.Submit(context.Background(), validForm(), f.scopes.Scope("c1"))

	require.Equal(t, StateSucceeded, out.State)
	require.Equal(t, models.StatusRegistered, out.Record.Status)
	require.Equal(t, 1, store.inserts)
}

func TestSubmit_InsertDuplicateRejected(t *testing.T) {
	store := newSpyPort()
	store.insertErr = fmt.Errorf("insert: %w", storage.ErrDuplicate)
	f := newFixture(t, store, beforeDeadline)

	out := f.wf.Submit(context.Background(), validForm(), f.scopes.Scope("c1"))

	require.Equal(t, StateRejected, out.State)
	require.Equal(t, KindDuplicate, out.Kind)
	require.Empty(t, f.confirmer.got)
}

func TestSubmit_StorageFailuresClassified(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*spyPort)
		kind  Kind
	}{
		{"check transport", func(s *spyPort) { s.checkErr = fmt.Errorf("%w: timeout", storage.ErrTransport) }, KindTransport},
		{"count transport", func(s *spyPort) { s.countErr = fmt.Errorf("%w: reset", storage.ErrTransport) }, KindTransport},
		{"insert unknown", func(s *spyPort) { s.insertErr = errors.New("disk full") }, KindUnclassified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newSpyPort()
			tt.setup(store)
			f := newFixture(t, store, beforeDeadline)

			out := f.wf.Submit(context.Background(), validForm(), f.scopes.Scope("c1"))

			require.Equal(t, StateFailed, out.State)
			require.Equal(t, tt.kind, out.Kind)
			require.Error(t, out.Err)
		})
	}
}

func TestSubmit_UnconfiguredStorage(t *testing.T) {
	f := newFixture(t, storage.Unconfigured{}, beforeDeadline)

	out := f.wf.Submit(context.Background(), validForm(), f.scopes.Scope("c1"))

	require.Equal(t, StateFailed, out.State)
	require.Equal(t, KindConfiguration, out.Kind)
	require.Equal(t, MsgConfiguration, out.Message)
}

func TestSubmit_ConfirmerFailureIgnored(t *testing.T) {
	store := newSpyPort()
	f := newFixture(t, store, beforeDeadline)
	f.confirmer.err = errors.New("queue down")

	out := f.wf.Submit(context.Background(), validForm(), f.scopes.Scope("c1"))
	require.Equal(t, StateSucceeded, out.State)
}

func TestSubmit_DefaultsWorkshopLevel(t *testing.T) {
	store := newSpyPort()
	f := newFixture(t, store, beforeDeadline)
	form := validForm()
	form.WorkshopLevel = ""

	out := f.wf.Submit(context.Background(), form, f.scopes.Scope("c1"))
	require.Equal(t, "Explorer Level", out.Record.WorkshopLevel)
}
