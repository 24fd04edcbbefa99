package usecase

import (
	"context"
	"errors"
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

func TestAppointmentUsecase_Book_ConcurrentSameSlot(t *testing.T) {
	f := newClinicFixture(t, clinicDay.Add(-48*time.Hour))
	ctx := context.Background()

	const attempts = 20
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.uc.Book(ctx, f.bookCommand(f.consult, at(10, 0)))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperror.KindOf(err) == apperror.KindConflict:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)

	active, err := f.repo.FindActiveByDoctorBetween(ctx, f.doctor.ID, at(10, 0), at(10, 30))
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, 1, f.events.Count(entity.EventAppointmentBooked))
}

func TestAppointmentUsecase_Book_SpawnsLabWhenConfirmed(t *testing.T) {
	f := newClinicFixture(t, clinicDay.Add(-48*time.Hour))
	ctx := context.Background()

	booked, err := f.uc.Book(ctx, f.bookCommand(f.bloodTest, at(8, 0)))
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusConfirmed, booked.Status)
	require.NotNil(t, booked.LabStatus)
	assert.Equal(t, entity.LabRequestStatusPending, *booked.LabStatus)

	lab, err := f.labs.FindByAppointmentID(ctx, booked.ID)
	require.NoError(t, err)
	require.NotNil(t, lab)
	assert.Equal(t, "Budi Santoso", lab.PatientName)
	assert.True(t, lab.BloodSampleRequired)
	assert.Equal(t, []entity.EventType{entity.EventAppointmentBooked, entity.EventLabRequestCreated}, f.events.Types())
}

func TestAppointmentUsecase_Book_AnonymousHidesName(t *testing.T) {
	f := newClinicFixture(t, clinicDay.Add(-48*time.Hour))
	cmd := f.bookCommand(f.bloodTest, at(8, 0))
	cmd.IsAnonymous = true

	booked, err := f.uc.Book(context.Background(), cmd)
	require.NoError(t, err)

	lab, _ := f.labs.FindByAppointmentID(context.Background(), booked.ID)
	require.NotNil(t, lab)
	assert.Equal(t, anonymousPatient, lab.PatientName)
}

func TestAppointmentUsecase_Book_Rejections(t *testing.T) {
	f := newClinicFixture(t, clinicDay.Add(-48*time.Hour))
	ctx := context.Background()

	online := f.bookCommand(f.bloodTest, at(8, 0))
	online.IsOnline = true
	_, err := f.uc.Book(ctx, online)
	assert.True(t, errors.Is(err, ErrOnlineNotOffered))

	stranger := f.bookCommand(f.consult, at(8, 0))
	stranger.PatientID = uuid.New()
	_, err = f.uc.Book(ctx, stranger)
	assert.True(t, errors.Is(err, ErrPatientNotFound))

	_, err = f.uc.Book(ctx, f.bookCommand(f.consult, at(8, 10)))
	assert.True(t, errors.Is(err, ErrSlotNotOffered))

	f.clock.Set(at(9, 0))
	_, err = f.uc.Book(ctx, f.bookCommand(f.consult, at(8, 30)))
	assert.True(t, errors.Is(err, ErrSlotInPast))

	assert.Empty(t, f.events.Types())
}

func TestAppointmentUsecase_Confirm_SpawnsLabOnce(t *testing.T) {
	f := newClinicFixture(t, clinicDay.Add(-48*time.Hour))
	ctx := context.Background()

	cmd := f.bookCommand(f.bloodTest, at(9, 0))
	cmd.AutoConfirm = false
	booked, err := f.uc.Book(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusPending, booked.Status)
	assert.Nil(t, booked.LabStatus)

	_, err = f.uc.Confirm(ctx, f.actor(f.patient), booked.ID)
	assert.True(t, errors.Is(err, ErrNotParticipant))

	confirmed, err := f.uc.Confirm(ctx, f.actor(f.staff), booked.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.LabStatus)

	pending, err := f.lab.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = f.uc.Confirm(ctx, f.actor(f.staff), booked.ID)
	assert.True(t, errors.Is(err, entity.ErrInvalidTransition))
}

func TestAppointmentUsecase_Cancel_Window(t *testing.T) {
	scheduled := at(9, 0)

	t.Run("more than 24h ahead", func(t *testing.T) {
		f := newClinicFixture(t, scheduled.Add(-25*time.Hour))
		a := f.seed(entity.AppointmentStatusConfirmed, scheduled, false)

		cancelled, err := f.uc.Cancel(context.Background(), f.actor(f.patient), a.ID, "")
		require.NoError(t, err)
		assert.Equal(t, entity.AppointmentStatusCancelled, cancelled.Status)
		assert.Equal(t, defaultCancelReason, cancelled.CancelReason)
		require.NotNil(t, cancelled.CancelledAt)
		assert.Equal(t, []entity.EventType{entity.EventAppointmentCancelled}, f.events.Types())
	})

	t.Run("within 24h", func(t *testing.T) {
		f := newClinicFixture(t, scheduled.Add(-23*time.Hour))
		a := f.seed(entity.AppointmentStatusConfirmed, scheduled, false)

		_, err := f.uc.Cancel(context.Background(), f.actor(f.patient), a.ID, "travel")
		require.True(t, errors.Is(err, window.ErrCancelTooLate))
		appErr, _ := apperror.As(err)
		assert.Equal(t, 23*time.Hour, appErr.Remaining)
		assert.Equal(t, entity.AppointmentStatusConfirmed, f.stored(t, a.ID).Status)
	})

	t.Run("checked in", func(t *testing.T) {
		f := newClinicFixture(t, scheduled.Add(-72*time.Hour))
		a := f.seed(entity.AppointmentStatusCheckedIn, scheduled, false)

		_, err := f.uc.Cancel(context.Background(), f.actor(f.patient), a.ID, "")
		assert.True(t, errors.Is(err, entity.ErrAlreadyCheckedIn))
	})

	t.Run("someone else's appointment", func(t *testing.T) {
		f := newClinicFixture(t, scheduled.Add(-72*time.Hour))
		a := f.seed(entity.AppointmentStatusConfirmed, scheduled, false)

		other := entity.Actor{UserID: uuid.New(), RoleID: entity.RoleIDPatient}
		_, err := f.uc.Cancel(context.Background(), other, a.ID, "")
		assert.True(t, errors.Is(err, ErrNotParticipant))
	})
}

func TestAppointmentUsecase_Cancel_KeepsCompletedLabRequest(t *testing.T) {
	f := newClinicFixture(t, clinicDay.Add(-48*time.Hour))
	booked, lab := f.bookWithLab(t, at(8, 0))
	ctx := context.Background()
	results := []entity.LabTestResult{{Name: "Hemoglobin", Value: "13.5", Unit: "g/dL"}}

	_, err := f.lab.Claim(ctx, f.actor(f.staff), lab.ID)
	require.NoError(t, err)
	_, err = f.lab.SubmitResults(ctx, f.actor(f.staff), lab.ID, results)
	require.NoError(t, err)

	cancelled, err := f.uc.Cancel(ctx, f.actor(f.patient), booked.ID, "")
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.LabStatus)
	assert.Equal(t, entity.LabRequestStatusCompleted, *cancelled.LabStatus)

	stored, err := f.lab.Get(ctx, lab.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LabRequestStatusCompleted, stored.Status)
	assert.Equal(t, entity.LabResults(results), stored.Results)
	assert.Equal(t, entity.EventAppointmentCancelled, f.events.Types()[len(f.events.Types())-1])
}

func TestAppointmentUsecase_CheckIn_Window(t *testing.T) {
	scheduled := at(11, 0)
	f := newClinicFixture(t, scheduled.Add(-3*time.Hour))
	a := f.seed(entity.AppointmentStatusConfirmed, scheduled, false)
	ctx := context.Background()

	_, err := f.uc.CheckIn(ctx, f.actor(f.patient), a.ID)
	require.True(t, errors.Is(err, window.ErrCheckInTooEarly))
	appErr, _ := apperror.As(err)
	assert.Equal(t, time.Hour, appErr.Remaining)

	f.clock.Set(scheduled.Add(5 * time.Minute))
	_, err = f.uc.CheckIn(ctx, f.actor(f.patient), a.ID)
	assert.True(t, errors.Is(err, window.ErrCheckInTooLate))

	f.clock.Set(scheduled.Add(-time.Hour))
	checkedIn, err := f.uc.CheckIn(ctx, f.actor(f.patient), a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusCheckedIn, checkedIn.Status)
	assert.True(t, checkedIn.CheckedIn)

	_, err = f.uc.CheckIn(ctx, f.actor(f.patient), a.ID)
	assert.True(t, errors.Is(err, entity.ErrAlreadyCheckedIn))
}

func TestAppointmentUsecase_InPersonFlow(t *testing.T) {
	f := newClinicFixture(t, at(8, 45))
	a := f.seed(entity.AppointmentStatusCheckedIn, at(9, 0), false)
	ctx := context.Background()

	_, err := f.uc.PutUnderReview(ctx, f.actor(f.patient), a.ID, "120/80", "")
	assert.True(t, errors.Is(err, ErrNotParticipant))

	reviewed, err := f.uc.PutUnderReview(ctx, f.actor(f.doctor), a.ID, "120/80", "mild fever")
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusUnderReview, reviewed.Status)
	assert.Equal(t, "120/80", reviewed.Vitals)

	completed, err := f.uc.Complete(ctx, f.actor(f.doctor), a.ID, "rest for two days")
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusCompleted, completed.Status)
	assert.Equal(t, "rest for two days", completed.DoctorNotes)
	require.NotNil(t, completed.CompletedAt)

	_, err = f.uc.Cancel(ctx, f.actor(f.patient), a.ID, "")
	assert.True(t, errors.Is(err, entity.ErrAppointmentClosed))
}

func TestAppointmentUsecase_MarkNoShow(t *testing.T) {
	f := newClinicFixture(t, at(8, 50))
	a := f.seed(entity.AppointmentStatusConfirmed, at(9, 0), false)
	ctx := context.Background()

	_, err := f.uc.MarkNoShow(ctx, f.actor(f.staff), a.ID)
	assert.True(t, errors.Is(err, window.ErrScheduledNotPassed))

	f.clock.Set(at(9, 1))
	_, err = f.uc.MarkNoShow(ctx, f.actor(f.patient), a.ID)
	assert.True(t, errors.Is(err, ErrNotParticipant))

	marked, err := f.uc.MarkNoShow(ctx, f.actor(f.staff), a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusNoShow, marked.Status)
}

func TestAppointmentUsecase_SweepNoShows(t *testing.T) {
	f := newClinicFixture(t, at(9, 30))
	ctx := context.Background()

	overduePending := f.seed(entity.AppointmentStatusPending, at(8, 0), false)
	overdueConfirmed := f.seed(entity.AppointmentStatusConfirmed, at(8, 30), false)
	checkedIn := f.seed(entity.AppointmentStatusCheckedIn, at(8, 0), false)
	withinGrace := f.seed(entity.AppointmentStatusConfirmed, at(9, 0), false)

	marked, err := f.uc.SweepNoShows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	assert.Equal(t, entity.AppointmentStatusNoShow, f.stored(t, overduePending.ID).Status)
	assert.Equal(t, entity.AppointmentStatusNoShow, f.stored(t, overdueConfirmed.ID).Status)
	assert.Equal(t, entity.AppointmentStatusCheckedIn, f.stored(t, checkedIn.ID).Status)
	assert.Equal(t, entity.AppointmentStatusConfirmed, f.stored(t, withinGrace.ID).Status)
	assert.Equal(t, 2, f.events.Count(entity.EventAppointmentNoShow))

	marked, err = f.uc.SweepNoShows(ctx)
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestAppointmentUsecase_MarkPaid(t *testing.T) {
	f := newClinicFixture(t, at(8, 0))
	a := f.seed(entity.AppointmentStatusConfirmed, at(9, 0), false)
	cancelled := f.seed(entity.AppointmentStatusCancelled, at(10, 0), false)
	ctx := context.Background()

	paid, err := f.uc.MarkPaid(ctx, f.actor(f.staff), a.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, at(8, 0), *paid.PaidAt)

	_, err = f.uc.MarkPaid(ctx, f.actor(f.staff), a.ID)
	assert.True(t, errors.Is(err, ErrCannotMarkPaid))

	_, err = f.uc.MarkPaid(ctx, f.actor(f.staff), cancelled.ID)
	assert.True(t, errors.Is(err, ErrCannotMarkPaid))
	assert.Equal(t, 1, f.events.Count(entity.EventAppointmentPaid))
}

func TestAppointmentUsecase_GetAndList(t *testing.T) {
	f := newClinicFixture(t, at(8, 0))
	a := f.seed(entity.AppointmentStatusConfirmed, at(9, 0), false)
	f.seed(entity.AppointmentStatusCancelled, at(10, 0), false)
	ctx := context.Background()

	got, err := f.uc.Get(ctx, f.actor(f.doctor), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = f.uc.Get(ctx, entity.Actor{UserID: uuid.New(), RoleID: entity.RoleIDDoctor}, a.ID)
	assert.True(t, errors.Is(err, ErrNotParticipant))

	_, err = f.uc.Get(ctx, f.actor(f.staff), uuid.New())
	assert.True(t, errors.Is(err, ErrAppointmentNotFound))

	mine, err := f.uc.ListForPatient(ctx, f.patient.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	confirmed, err := f.uc.ListForDoctor(ctx, f.doctor.ID, entity.AppointmentFilter{Status: entity.AppointmentStatusConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, a.ID, confirmed[0].ID)
}
