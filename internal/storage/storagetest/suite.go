// Package storagetest holds the behaviour every storage.Port backend must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/workshops/internal/models"
	"github.com/aura-webinar/workshops/internal/storage"
)

// Registration returns a valid record for eventID with the given student email.
func Registration(eventID, studentEmail string, status models.RegistrationStatus) models.Registration {
	return models.Registration{
		StudentName:   "Ada Lovelace",
		StudentEmail:  studentEmail,
		StudentGrade:  models.Grade10,
		ParentName:    "Anne Byron",
		ParentEmail:   "parent-" + studentEmail,
		ParentPhone:   "(555) 123-4567",
		WorkshopLevel: "Explorer Level",
		EventID:       eventID,
		Motivation:    "I want to build robots that can learn.",
		Status:        status,
	}
}

// RunPortSuite exercises a fresh backend returned by newPort for each subtest.
func RunPortSuite(t *testing.T, newPort func(t *testing.T) storage.Port) {
	t.Run("check missing returns nil", func(t *testing.T) {
		p := newPort(t)
		got, err := p.CheckExistingRegistration(context.Background(), "nobody@example.com", "ev")
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("insert assigns id and timestamp", func(t *testing.T) {
		p := newPort(t)
		ins, err := p.InsertRegistration(context.Background(), Registration("ev", "a@example.com", models.StatusRegistered))
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, ins.ID)
		require.False(t, ins.CreatedAt.IsZero())
		require.Equal(t, models.StatusRegistered, ins.Status)

		found, err := p.CheckExistingRegistration(context.Background(), "a@example.com", "ev")
		require.NoError(t, err)
		require.NotNil(t, found)
		require.Equal(t, ins.ID, found.ID)
		require.Equal(t, models.Grade10, found.StudentGrade)
	})

	t.Run("duplicate insert", func(t *testing.T) {
		p := newPort(t)
		ctx := context.Background()
		_, err := p.InsertRegistration(ctx, Registration("ev", "a@example.com", models.StatusRegistered))
		require.NoError(t, err)
		_, err = p.InsertRegistration(ctx, Registration("ev", "a@example.com", models.StatusWaitlisted))
		require.ErrorIs(t, err, storage.ErrDuplicate)

		_, err = p.InsertRegistration(ctx, Registration("other", "a@example.com", models.StatusRegistered))
		require.NoError(t, err, "same student may register for a different event")
	})

	t.Run("count excludes waitlisted and other events", func(t *testing.T) {
		p := newPort(t)
		ctx := context.Background()
		for _, r := range []models.Registration{
			Registration("ev", "a@example.com", models.StatusRegistered),
			Registration("ev", "b@example.com", models.StatusRegistered),
			Registration("ev", "c@example.com", models.StatusWaitlisted),
			Registration("other", "d@example.com", models.StatusRegistered),
		} {
			_, err := p.InsertRegistration(ctx, r)
			require.NoError(t, err)
		}
		n, err := p.GetRegistrationCount(ctx, "ev")
		require.NoError(t, err)
		require.Equal(t, 2, n)
	})

	t.Run("list newest first", func(t *testing.T) {
		p := newPort(t)
		ctx := context.Background()
		for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
			_, err := p.InsertRegistration(ctx, Registration("ev", email, models.StatusRegistered))
			require.NoError(t, err)
		}
		list, err := p.GetRegistrations(ctx, "ev")
		require.NoError(t, err)
		require.Len(t, list, 3)
		require.Equal(t, "c@example.com", list[0].StudentEmail)
		require.Equal(t, "a@example.com", list[2].StudentEmail)

		empty, err := p.GetRegistrations(ctx, "none")
		require.NoError(t, err)
		require.Empty(t, empty)
	})
}
