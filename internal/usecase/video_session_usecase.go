package usecase

import (
	"context"
	"fmt"
	"time"

	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/internal/domain/window"
	"clinic-orchestrator/internal/service"
	"clinic-orchestrator/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var (
	ErrInvalidParticipantRole = apperror.Validation("invalid_participant_role", "role must be PATIENT or DOCTOR")
	ErrWrongParticipantRole   = apperror.Forbidden("wrong_participant_role", "you are not the participant of this role")
	ErrSessionClosed          = apperror.Precondition("session_closed", "appointment is no longer active for a video consultation")
	ErrSessionProvider        = apperror.Upstream("session_provider_unavailable", "could not reach the session provider", nil)
)

// SessionTokenProvider is the opaque issuer of join tokens of the real-time session provider.
type SessionTokenProvider interface {
	Issue(ctx context.Context, channel string, uid uuid.UUID, role string, ttl time.Duration) (string, time.Time, error)
}

type VideoSessionUsecase interface {
	IssueCredential(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, role entity.ParticipantRole) (*entity.VideoCredential, error)
	Renew(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, role entity.ParticipantRole) (*entity.VideoCredential, error)
	EndSession(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, successful bool) (*entity.Appointment, error)
	// HandleEvent discards stored credentials once an appointment leaves the active online statuses.
	HandleEvent(ctx context.Context, event entity.DomainEvent)
}

type VideoSessionOptions struct {
	TokenTTL        time.Duration
	RenewInterval   time.Duration
	ProviderTimeout time.Duration
}

type videoSessionUsecase struct {
	log          *logrus.Logger
	clock        window.Clock
	policy       window.Policy
	opts         VideoSessionOptions
	appointments AppointmentUsecase
	provider     SessionTokenProvider
	store        service.CredentialStore
	events       service.EventPublisher
	renewals     singleflight.Group
}

func NewVideoSessionUsecase(
	log *logrus.Logger,
	clock window.Clock,
	policy window.Policy,
	opts VideoSessionOptions,
	appointments AppointmentUsecase,
	provider SessionTokenProvider,
	store service.CredentialStore,
	events service.EventPublisher,
) VideoSessionUsecase {
	return &videoSessionUsecase{
		log:          log,
		clock:        clock,
		policy:       policy,
		opts:         opts,
		appointments: appointments,
		provider:     provider,
		store:        store,
		events:       events,
	}
}

func (u *videoSessionUsecase) IssueCredential(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, role entity.ParticipantRole) (*entity.VideoCredential, error) {
	appointment, err := u.authorize(ctx, actor, appointmentID, role)
	if err != nil {
		return nil, err
	}
	return u.issue(ctx, actor, appointment, role)
}

// Renew is meant to be called on a fixed cadence while the session is open. Within one
// renewal interval it returns the stored credential; concurrent calls for the same
// (appointment, role) share one provider round trip.
func (u *videoSessionUsecase) Renew(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, role entity.ParticipantRole) (*entity.VideoCredential, error) {
	appointment, err := u.authorize(ctx, actor, appointmentID, role)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s:%s", appointmentID, role)
	v, err, _ := u.renewals.Do(key, func() (interface{}, error) {
		stored, err := u.store.Get(ctx, appointmentID, role)
		if err != nil {
			u.log.Warnf("Failed to read stored credential %s: %+v", key, err)
		}
		now := u.clock.Now()
		if stored != nil && stored.UID == actor.UserID && now.Sub(stored.IssuedAt) < u.opts.RenewInterval && now.Before(stored.ExpiresAt) {
			return stored, nil
		}
		return u.issue(ctx, actor, appointment, role)
	})
	if err != nil {
		return nil, err
	}
	return v.(*entity.VideoCredential), nil
}

// EndSession completes the appointment only after a successful session. An aborted
// session leaves the appointment untouched so participants can join again.
func (u *videoSessionUsecase) EndSession(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, successful bool) (*entity.Appointment, error) {
	appointment, err := u.appointments.Get(ctx, actor, appointmentID)
	if err != nil {
		return nil, err
	}
	if !appointment.IsOnline {
		return nil, ErrNotOnline
	}

	if !successful {
		u.log.Infof("Video session of appointment %s ended unsuccessfully, status kept at %s", appointmentID, appointment.Status)
		return appointment, nil
	}

	completed, err := u.appointments.CompleteFromVideoSession(ctx, actor, appointmentID)
	if err != nil {
		return nil, err
	}

	u.discard(ctx, appointmentID)
	event := entity.NewAppointmentEvent(entity.EventVideoSessionEnded, completed, actor, u.clock.Now())
	u.events.Publish(ctx, event)
	return completed, nil
}

func (u *videoSessionUsecase) HandleEvent(ctx context.Context, event entity.DomainEvent) {
	if event.Aggregate != entity.AggregateAppointment {
		return
	}
	switch event.Type {
	case entity.EventAppointmentCancelled, entity.EventAppointmentNoShow, entity.EventAppointmentCompleted:
		if online, _ := event.Payload["is_online"].(bool); online {
			u.discard(ctx, event.AggregateID)
		}
	}
}

// authorize loads the appointment and checks that actor may hold a credential for role now.
func (u *videoSessionUsecase) authorize(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, role entity.ParticipantRole) (*entity.Appointment, error) {
	if !role.Valid() {
		return nil, ErrInvalidParticipantRole
	}

	appointment, err := u.appointments.Get(ctx, actor, appointmentID)
	if err != nil {
		return nil, err
	}
	if !appointment.IsOnline {
		return nil, ErrNotOnline
	}
	if !appointment.IsActiveOnline() {
		return nil, ErrSessionClosed
	}

	switch role {
	case entity.ParticipantPatient:
		if appointment.PatientID != actor.UserID {
			return nil, ErrWrongParticipantRole
		}
	case entity.ParticipantDoctor:
		if appointment.DoctorID != actor.UserID {
			return nil, ErrWrongParticipantRole
		}
	}

	if err := u.policy.VideoJoin(u.clock.Now(), appointment.ScheduledAt); err != nil {
		return nil, err
	}
	return appointment, nil
}

// issue asks the provider for a token first; nothing is stored or transitioned if that fails.
func (u *videoSessionUsecase) issue(ctx context.Context, actor entity.Actor, appointment *entity.Appointment, role entity.ParticipantRole) (*entity.VideoCredential, error) {
	channel := entity.VideoChannel(appointment.ID)

	providerCtx, cancel := context.WithTimeout(ctx, u.opts.ProviderTimeout)
	defer cancel()

	token, expiresAt, err := u.provider.Issue(providerCtx, channel, actor.UserID, string(role), u.opts.TokenTTL)
	if err != nil {
		u.log.Warnf("Failed to issue %s credential for appointment %s: %+v", role, appointment.ID, err)
		return nil, ErrSessionProvider.Wrap(err)
	}

	if role == entity.ParticipantDoctor {
		if _, err := u.appointments.StartVideoReview(ctx, actor, appointment.ID); err != nil {
			return nil, err
		}
	}

	credential := &entity.VideoCredential{
		AppointmentID: appointment.ID,
		Role:          role,
		UID:           actor.UserID,
		Channel:       channel,
		Token:         token,
		IssuedAt:      u.clock.Now(),
		ExpiresAt:     expiresAt,
	}
	if err := u.store.Save(ctx, credential); err != nil {
		u.log.Warnf("Failed to store %s credential for appointment %s: %+v", role, appointment.ID, err)
	}

	event := entity.NewAppointmentEvent(entity.EventVideoCredentialIssued, appointment, actor, credential.IssuedAt)
	event.Payload["role"] = string(role)
	u.events.Publish(ctx, event)

	return credential, nil
}

func (u *videoSessionUsecase) discard(ctx context.Context, appointmentID uuid.UUID) {
	if err := u.store.Discard(ctx, appointmentID); err != nil {
		u.log.Warnf("Failed to discard credentials of appointment %s: %+v", appointmentID, err)
	}
}
