// Package storage defines the persistence contract for registration records.
// Each backend lives in its own subpackage and is chosen once at startup.
package storage

import (
	"context"
	"errors"

	"github.com/aura-webinar/workshops/internal/models"
)

var (
	// ErrDuplicate is returned by InsertRegistration when the student is already
	// registered for the event (uniqueness on student email + event).
	ErrDuplicate = errors.New("student already registered for this event")
	// ErrPermissionDenied means the backend refused a read; callers on the
	// submission path treat it as "no answer" rather than a failure.
	ErrPermissionDenied = errors.New("storage permission denied")
	// ErrNotInitialized means no backend is configured or it failed to start.
	ErrNotInitialized = errors.New("storage backend not initialized")
	// ErrTransport wraps network or connection failures reaching the backend.
	ErrTransport = errors.New("storage backend unreachable")
)

// Port is implemented by every storage backend.
type Port interface {
	// CheckExistingRegistration returns nil, nil when no record matches.
	CheckExistingRegistration(ctx context.Context, studentEmail, eventID string) (*models.Registration, error)
	// GetRegistrationCount counts records with status registered (waitlisted excluded).
	GetRegistrationCount(ctx context.Context, eventID string) (int, error)
	// InsertRegistration persists rec and returns it with ID and CreatedAt set.
	InsertRegistration(ctx context.Context, rec models.Registration) (*models.Registration, error)
	// GetRegistrations lists an event's records newest first.
	GetRegistrations(ctx context.Context, eventID string) ([]models.Registration, error)
}

// Unconfigured is the Port used when no backend could be started. Every call
// fails with ErrNotInitialized.
type Unconfigured struct{}

func (Unconfigured) CheckExistingRegistration(context.Context, string, string) (*models.Registration, error) {
	return nil, ErrNotInitialized
}

func (Unconfigured) GetRegistrationCount(context.Context, string) (int, error) {
	return 0, ErrNotInitialized
}

func (Unconfigured) InsertRegistration(context.Context, models.Registration) (*models.Registration, error) {
	return nil, ErrNotInitialized
}

func (Unconfigured) GetRegistrations(context.Context, string) ([]models.Registration, error) {
	return nil, ErrNotInitialized
}
