package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/internal/domain/window"
	"clinic-orchestrator/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenProvider struct {
	mu    sync.Mutex
	clock window.Clock
	calls int
	err   error
}

func (p *fakeTokenProvider) Issue(_ context.Context, channel string, uid uuid.UUID, role string, ttl time.Duration) (string, time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", time.Time{}, p.err
	}
	p.calls++
	return fmt.Sprintf("%s/%s/%s/%d", channel, uid, role, p.calls), p.clock.Now().Add(ttl), nil
}

func (p *fakeTokenProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type memCredentialStore struct {
	mu          sync.Mutex
	credentials map[string]entity.VideoCredential
}

func newMemCredentialStore() *memCredentialStore {
	return &memCredentialStore{credentials: make(map[string]entity.VideoCredential)}
}

func (s *memCredentialStore) Save(_ context.Context, c *entity.VideoCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[c.AppointmentID.String()+string(c.Role)] = *c
	return nil
}

func (s *memCredentialStore) Get(_ context.Context, appointmentID uuid.UUID, role entity.ParticipantRole) (*entity.VideoCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credentials[appointmentID.String()+string(role)]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *memCredentialStore) Discard(_ context.Context, appointmentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.credentials, appointmentID.String()+string(entity.ParticipantPatient))
	delete(s.credentials, appointmentID.String()+string(entity.ParticipantDoctor))
	return nil
}

func (s *memCredentialStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.credentials)
}

type videoFixture struct {
	*clinicFixture
	provider *fakeTokenProvider
	store    *memCredentialStore
	video    VideoSessionUsecase
	appt     entity.Appointment
}

func newVideoFixture(t *testing.T, now time.Time) *videoFixture {
	f := newClinicFixture(t, now)
	v := &videoFixture{
		clinicFixture: f,
		provider:      &fakeTokenProvider{clock: f.clock},
		store:         newMemCredentialStore(),
	}
	v.video = NewVideoSessionUsecase(quietLogger(), f.clock, window.DefaultPolicy(), VideoSessionOptions{
		TokenTTL:        time.Hour,
		RenewInterval:   30 * time.Minute,
		ProviderTimeout: time.Second,
	}, f.uc, v.provider, v.store, f.events)
	v.appt = f.seed(entity.AppointmentStatusConfirmed, at(10, 0), true)
	return v
}

func TestVideoSession_JoinWindow(t *testing.T) {
	v := newVideoFixture(t, at(8, 0))
	ctx := context.Background()

	_, err := v.video.IssueCredential(ctx, v.actor(v.patient), v.appt.ID, entity.ParticipantPatient)
	require.True(t, errors.Is(err, window.ErrJoinWindowNotOpen))
	appErr, _ := apperror.As(err)
	assert.Equal(t, time.Hour, appErr.Remaining)
	assert.Zero(t, v.provider.Calls())

	v.clock.Set(at(9, 30))
	credential, err := v.video.IssueCredential(ctx, v.actor(v.patient), v.appt.ID, entity.ParticipantPatient)
	require.NoError(t, err)
	assert.Equal(t, entity.VideoChannel(v.appt.ID), credential.Channel)
	assert.Equal(t, entity.ParticipantPatient, credential.Role)
	assert.Equal(t, v.patient.ID, credential.UID)
	assert.Equal(t, at(10, 30), credential.ExpiresAt)
	assert.Equal(t, 1, v.store.Len())

	// the patient joining does not start the review
	assert.Equal(t, entity.AppointmentStatusConfirmed, v.stored(t, v.appt.ID).Status)
}

func TestVideoSession_IssueRejections(t *testing.T) {
	v := newVideoFixture(t, at(9, 30))
	ctx := context.Background()

	_, err := v.video.IssueCredential(ctx, v.actor(v.patient), v.appt.ID, "NURSE")
	assert.True(t, errors.Is(err, ErrInvalidParticipantRole))

	_, err = v.video.IssueCredential(ctx, v.actor(v.patient), v.appt.ID, entity.ParticipantDoctor)
	assert.True(t, errors.Is(err, ErrWrongParticipantRole))

	_, err = v.video.IssueCredential(ctx, v.actor(v.staff), v.appt.ID, entity.ParticipantPatient)
	assert.True(t, errors.Is(err, ErrWrongParticipantRole))

	_, err = v.video.IssueCredential(ctx, entity.Actor{UserID: uuid.New(), RoleID: entity.RoleIDPatient}, v.appt.ID, entity.ParticipantPatient)
	assert.True(t, errors.Is(err, ErrNotParticipant))

	inPerson := v.seed(entity.AppointmentStatusConfirmed, at(11, 0), false)
	_, err = v.video.IssueCredential(ctx, v.actor(v.patient), inPerson.ID, entity.ParticipantPatient)
	assert.True(t, errors.Is(err, ErrNotOnline))

	cancelled := v.seed(entity.AppointmentStatusCancelled, at(10, 0), true)
	_, err = v.video.IssueCredential(ctx, v.actor(v.patient), cancelled.ID, entity.ParticipantPatient)
	assert.True(t, errors.Is(err, ErrSessionClosed))

	assert.Zero(t, v.provider.Calls())
}

func TestVideoSession_DoctorJoinStartsReview(t *testing.T) {
	v := newVideoFixture(t, at(9, 45))
	ctx := context.Background()

	_, err := v.video.IssueCredential(ctx, v.actor(v.doctor), v.appt.ID, entity.ParticipantDoctor)
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusUnderReview, v.stored(t, v.appt.ID).Status)

	// a second doctor credential is a no-op for the status
	_, err = v.video.IssueCredential(ctx, v.actor(v.doctor), v.appt.ID, entity.ParticipantDoctor)
	require.NoError(t, err)
	assert.Equal(t, 1, v.events.Count(entity.EventAppointmentUnderReview))
	assert.Equal(t, 2, v.events.Count(entity.EventVideoCredentialIssued))
}

func TestVideoSession_ProviderFailureLeavesStateUntouched(t *testing.T) {
	v := newVideoFixture(t, at(9, 45))
	v.provider.err = errors.New("provider timeout")

	_, err := v.video.IssueCredential(context.Background(), v.actor(v.doctor), v.appt.ID, entity.ParticipantDoctor)
	require.True(t, errors.Is(err, ErrSessionProvider))
	assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))

	assert.Equal(t, entity.AppointmentStatusConfirmed, v.stored(t, v.appt.ID).Status)
	assert.Zero(t, v.store.Len())
	assert.Empty(t, v.events.Types())
}

func TestVideoSession_RenewIdempotentWithinInterval(t *testing.T) {
	v := newVideoFixture(t, at(9, 30))
	ctx := context.Background()

	issued, err := v.video.IssueCredential(ctx, v.actor(v.patient), v.appt.ID, entity.ParticipantPatient)
	require.NoError(t, err)

	v.clock.Set(at(9, 50))
	renewed, err := v.video.Renew(ctx, v.actor(v.patient), v.appt.ID, entity.ParticipantPatient)
	require.NoError(t, err)
	assert.Equal(t, issued.Token, renewed.Token)
	assert.Equal(t, 1, v.provider.Calls())

	v.clock.Set(at(10, 5))
	rotated, err := v.video.Renew(ctx, v.actor(v.patient), v.appt.ID, entity.ParticipantPatient)
	require.NoError(t, err)
	assert.NotEqual(t, issued.Token, rotated.Token)
	assert.Equal(t, issued.Channel, rotated.Channel)
	assert.Equal(t, at(11, 5), rotated.ExpiresAt)
	assert.Equal(t, 2, v.provider.Calls())
}

func TestVideoSession_RenewConcurrent(t *testing.T) {
	v := newVideoFixture(t, at(9, 30))
	ctx := context.Background()

	var (
		wg     sync.WaitGroup
		start  = make(chan struct{})
		mu     sync.Mutex
		tokens = make(map[string]bool)
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			c, err := v.video.Renew(ctx, v.actor(v.patient), v.appt.ID, entity.ParticipantPatient)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			tokens[c.Token] = true
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	assert.Len(t, tokens, 1)
	assert.Equal(t, 1, v.provider.Calls())
}

func TestVideoSession_EndSession(t *testing.T) {
	v := newVideoFixture(t, at(9, 55))
	ctx := context.Background()

	_, err := v.video.IssueCredential(ctx, v.actor(v.patient), v.appt.ID, entity.ParticipantPatient)
	require.NoError(t, err)
	_, err = v.video.IssueCredential(ctx, v.actor(v.doctor), v.appt.ID, entity.ParticipantDoctor)
	require.NoError(t, err)
	require.Equal(t, 2, v.store.Len())

	aborted, err := v.video.EndSession(ctx, v.actor(v.patient), v.appt.ID, false)
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusUnderReview, aborted.Status)
	assert.Equal(t, 2, v.store.Len())

	completed, err := v.video.EndSession(ctx, v.actor(v.doctor), v.appt.ID, true)
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusCompleted, completed.Status)
	assert.Zero(t, v.store.Len())
	assert.Equal(t, 1, v.events.Count(entity.EventVideoSessionEnded))

	_, err = v.video.IssueCredential(ctx, v.actor(v.patient), v.appt.ID, entity.ParticipantPatient)
	assert.True(t, errors.Is(err, ErrSessionClosed))
}

func TestVideoSession_HandleEventDiscardsOnCancel(t *testing.T) {
	v := newVideoFixture(t, at(9, 30))
	ctx := context.Background()

	_, err := v.video.IssueCredential(ctx, v.actor(v.patient), v.appt.ID, entity.ParticipantPatient)
	require.NoError(t, err)

	confirmed := v.stored(t, v.appt.ID)
	v.video.HandleEvent(ctx, entity.NewAppointmentEvent(entity.EventAppointmentConfirmed, confirmed, entity.SystemActor, at(9, 30)))
	assert.Equal(t, 1, v.store.Len())

	confirmed.Status = entity.AppointmentStatusCancelled
	v.video.HandleEvent(ctx, entity.NewAppointmentEvent(entity.EventAppointmentCancelled, confirmed, entity.SystemActor, at(9, 31)))
	assert.Zero(t, v.store.Len())
}
