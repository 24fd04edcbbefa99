package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clinic-orchestrator/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const RedisCredentialKeyPrefix = "video:credential:"

// CredentialStore keeps the latest credential per (appointment, role).
type CredentialStore interface {
	Save(ctx context.Context, credential *entity.VideoCredential) error
	Get(ctx context.Context, appointmentID uuid.UUID, role entity.ParticipantRole) (*entity.VideoCredential, error)
	Discard(ctx context.Context, appointmentID uuid.UUID) error
}

type redisCredentialStore struct {
	redisClient *redis.Client
	now         func() time.Time
}

func NewRedisCredentialStore(redisClient *redis.Client) CredentialStore {
	return &redisCredentialStore{redisClient: redisClient, now: time.Now}
}

func CredentialKey(appointmentID uuid.UUID, role entity.ParticipantRole) string {
	return fmt.Sprintf("%s%s:%s", RedisCredentialKeyPrefix, appointmentID, role)
}

// Save stores the credential until it expires.
func (s *redisCredentialStore) Save(ctx context.Context, credential *entity.VideoCredential) error {
	ttl := credential.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(credential)
	if err != nil {
		return err
	}
	return s.redisClient.Set(ctx, CredentialKey(credential.AppointmentID, credential.Role), payload, ttl).Err()
}

// Get returns nil, nil when nothing is stored.
func (s *redisCredentialStore) Get(ctx context.Context, appointmentID uuid.UUID, role entity.ParticipantRole) (*entity.VideoCredential, error) {
	raw, err := s.redisClient.Get(ctx, CredentialKey(appointmentID, role)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var credential entity.VideoCredential
	if err := json.Unmarshal(raw, &credential); err != nil {
		return nil, err
	}
	return &credential, nil
}

func (s *redisCredentialStore) Discard(ctx context.Context, appointmentID uuid.UUID) error {
	return s.redisClient.Del(ctx,
		CredentialKey(appointmentID, entity.ParticipantPatient),
		CredentialKey(appointmentID, entity.ParticipantDoctor),
	).Err()
}
