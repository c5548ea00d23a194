// Package memory is an in-process storage backend for local runs and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aura-webinar/workshops/internal/models"
	"github.com/aura-webinar/workshops/internal/storage"
)

// Store keeps registrations in a slice guarded by a mutex.
type Store struct {
	mu   sync.Mutex
	recs []models.Registration
	now  func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{now: time.Now}
}

// CheckExistingRegistration matches emails case-insensitively.
func (s *Store) CheckExistingRegistration(_ context.Context, studentEmail, eventID string) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recs {
		if r.EventID == eventID && strings.EqualFold(r.StudentEmail, studentEmail) {
			cp := r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) GetRegistrationCount(_ context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.recs {
		if r.EventID == eventID && r.Status == models.StatusRegistered {
			n++
		}
	}
	return n, nil
}

func (s *Store) InsertRegistration(_ context.Context, rec models.Registration) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recs {
		if r.EventID == rec.EventID && strings.EqualFold(r.StudentEmail, rec.StudentEmail) {
			return nil, storage.ErrDuplicate
		}
	}
	rec.ID = uuid.New()
	rec.CreatedAt = s.now()
	s.recs = append(s.recs, rec)
	return &rec, nil
}

func (s *Store) GetRegistrations(_ context.Context, eventID string) ([]models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.Registration
	for i := len(s.recs) - 1; i >= 0; i-- {
		if s.recs[i].EventID == eventID {
			list = append(list, s.recs[i])
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}
