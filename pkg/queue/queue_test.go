package queue

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDecodeConfirmation(t *testing.T) {
	want := ConfirmationPayload{
		RegistrationID: uuid.New(),
		EventID:        "ev",
		Status:         "waitlisted",
		StudentEmail:   "ada@example.com",
		ParentEmail:    "anne@example.com",
	}
	job, err := NewJob(JobTypeConfirmation, want)
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	require.Zero(t, job.Attempt)

	got, err := DecodeConfirmation(job)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestDecodeConfirmation_Rejects(t *testing.T) {
	_, err := DecodeConfirmation(&Job{Type: "recording_upload", Payload: []byte(`{}`)})
	require.True(t, errors.Is(err, ErrWrongJobType))

	_, err = DecodeConfirmation(&Job{Type: JobTypeConfirmation, Payload: []byte(`{`)})
	require.Error(t, err)
}
