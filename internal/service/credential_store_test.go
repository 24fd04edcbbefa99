package service

import (
	"context"
	"testing"
	"time"

	"clinic-orchestrator/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCredentialStore(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisCredentialStore(client)
	ctx := context.Background()

	appointmentID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)
	patient := &entity.VideoCredential{
		AppointmentID: appointmentID,
		Role:          entity.ParticipantPatient,
		UID:           uuid.New(),
		Channel:       entity.VideoChannel(appointmentID),
		Token:         "patient-token",
		IssuedAt:      now,
		ExpiresAt:     now.Add(time.Hour),
	}
	doctor := *patient
	doctor.Role = entity.ParticipantDoctor
	doctor.Token = "doctor-token"

	missing, err := store.Get(ctx, appointmentID, entity.ParticipantPatient)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Save(ctx, patient))
	require.NoError(t, store.Save(ctx, &doctor))

	ttl := mr.TTL(CredentialKey(appointmentID, entity.ParticipantPatient))
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "ttl %v", ttl)

	got, err := store.Get(ctx, appointmentID, entity.ParticipantPatient)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "patient-token", got.Token)
	assert.Equal(t, patient.UID, got.UID)
	assert.True(t, patient.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, store.Discard(ctx, appointmentID))
	assert.False(t, mr.Exists(CredentialKey(appointmentID, entity.ParticipantPatient)))
	assert.False(t, mr.Exists(CredentialKey(appointmentID, entity.ParticipantDoctor)))
}

func TestRedisCredentialStore_SkipsExpired(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisCredentialStore(client)

	expired := &entity.VideoCredential{
		AppointmentID: uuid.New(),
		Role:          entity.ParticipantDoctor,
		ExpiresAt:     time.Now().Add(-time.Minute),
	}
	require.NoError(t, store.Save(context.Background(), expired))
	assert.Empty(t, mr.Keys())
}
