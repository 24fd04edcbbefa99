package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clinic-orchestrator/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bookWithLab books a lab-requiring service and returns the spawned request.
func (f *clinicFixture) bookWithLab(t *testing.T, start time.Time) (*entity.Appointment, *entity.LabRequest) {
	t.Helper()
	ctx := context.Background()

	booked, err := f.uc.Book(ctx, f.bookCommand(f.bloodTest, start))
	require.NoError(t, err)
	lab, err := f.labs.FindByAppointmentID(ctx, booked.ID)
	require.NoError(t, err)
	require.NotNil(t, lab)
	return booked, lab
}

func TestLabRequestUsecase_ListPending_OldestFirst(t *testing.T) {
	f := newClinicFixture(t, clinicDay.Add(-48*time.Hour))
	ctx := context.Background()

	empty, err := f.lab.ListPending(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)

	_, first := f.bookWithLab(t, at(8, 0))
	_, second := f.bookWithLab(t, at(9, 0))
	_, third := f.bookWithLab(t, at(10, 0))

	_, err = f.lab.Claim(ctx, f.actor(f.staff), second.ID)
	require.NoError(t, err)

	pending, err := f.lab.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, third.ID, pending[1].ID)
}

func TestLabRequestUsecase_Claim_Concurrent(t *testing.T) {
	f := newClinicFixture(t, clinicDay.Add(-48*time.Hour))
	_, lab := f.bookWithLab(t, at(8, 0))
	ctx := context.Background()

	staff := make([]entity.User, 10)
	for i := range staff {
		staff[i] = entity.User{ID: uuid.New(), RoleID: entity.RoleIDStaff, FullName: "staff", IsActive: true}
		require.NoError(t, f.users.Create(ctx, &staff[i]))
	}

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		mu      sync.Mutex
		winners []uuid.UUID
		claimed int
	)
	for _, s := range staff {
		wg.Add(1)
		go func(s entity.User) {
			defer wg.Done()
			<-start
			_, err := f.lab.Claim(ctx, f.actor(s), lab.ID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, s.ID)
			case errors.Is(err, ErrLabRequestClaimed):
				claimed++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(s)
	}
	close(start)
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, len(staff)-1, claimed)

	stored, err := f.lab.Get(ctx, lab.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LabRequestStatusAssigned, stored.Status)
	require.NotNil(t, stored.AssignedStaffID)
	assert.Equal(t, winners[0], *stored.AssignedStaffID)
	assert.Equal(t, 1, f.events.Count(entity.EventLabRequestClaimed))
}

func TestLabRequestUsecase_Claim_Rejections(t *testing.T) {
	f := newClinicFixture(t, clinicDay.Add(-48*time.Hour))
	_, lab := f.bookWithLab(t, at(8, 0))
	ctx := context.Background()

	_, err := f.lab.Claim(ctx, f.actor(f.doctor), lab.ID)
	assert.True(t, errors.Is(err, ErrStaffOnly))

	_, err = f.lab.Claim(ctx, f.actor(f.staff), uuid.New())
	assert.True(t, errors.Is(err, ErrLabRequestNotFound))

	_, err = f.lab.Claim(ctx, f.actor(f.staff), lab.ID)
	require.NoError(t, err)
	_, err = f.lab.Claim(ctx, f.actor(f.staff2), lab.ID)
	assert.True(t, errors.Is(err, ErrLabRequestClaimed))
}

func TestLabRequestUsecase_SubmitResults_AssigneeOnly(t *testing.T) {
	f := newClinicFixture(t, clinicDay.Add(-48*time.Hour))
	booked, lab := f.bookWithLab(t, at(8, 0))
	ctx := context.Background()
	results := []entity.LabTestResult{{Name: "Hemoglobin", Value: "13.5", Unit: "g/dL"}}

	_, err := f.lab.SubmitResults(ctx, f.actor(f.staff), lab.ID, results)
	assert.True(t, errors.Is(err, entity.ErrInvalidLabTransition))

	_, err = f.lab.Claim(ctx, f.actor(f.staff), lab.ID)
	require.NoError(t, err)

	_, err = f.lab.SubmitResults(ctx, f.actor(f.staff), lab.ID, []entity.LabTestResult{{Name: "Hemoglobin"}})
	assert.True(t, errors.Is(err, ErrNoLabResults))

	_, err = f.lab.SubmitResults(ctx, f.actor(f.staff2), lab.ID, results)
	assert.True(t, errors.Is(err, ErrNotLabAssignee))

	completed, err := f.lab.SubmitResults(ctx, f.actor(f.staff), lab.ID, results)
	require.NoError(t, err)
	assert.Equal(t, entity.LabRequestStatusCompleted, completed.Status)
	assert.Equal(t, entity.LabResults(results), completed.Results)
	require.NotNil(t, completed.CompletedAt)

	appointment := f.stored(t, booked.ID)
	require.NotNil(t, appointment.LabStatus)
	assert.Equal(t, entity.LabRequestStatusCompleted, *appointment.LabStatus)
}

func TestLabRequestUsecase_RejectReactivateRoundTrip(t *testing.T) {
	f := newClinicFixture(t, clinicDay.Add(-48*time.Hour))
	booked, lab := f.bookWithLab(t, at(8, 0))
	ctx := context.Background()

	r1 := []entity.LabTestResult{{Name: "Glucose", Value: "180", Unit: "mg/dL"}}
	r2 := []entity.LabTestResult{{Name: "Glucose", Value: "110", Unit: "mg/dL"}}

	_, err := f.lab.Claim(ctx, f.actor(f.staff), lab.ID)
	require.NoError(t, err)
	_, err = f.lab.SubmitResults(ctx, f.actor(f.staff), lab.ID, r1)
	require.NoError(t, err)

	_, err = f.lab.Reject(ctx, f.actor(f.staff), lab.ID, "incomplete")
	assert.True(t, errors.Is(err, ErrDoctorOnly))
	_, err = f.lab.Reject(ctx, f.actor(f.doctor), lab.ID, "   ")
	assert.True(t, errors.Is(err, ErrRejectionNotesEmpty))

	rejected, err := f.lab.Reject(ctx, f.actor(f.doctor), lab.ID, "incomplete")
	require.NoError(t, err)
	assert.Equal(t, entity.LabRequestStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionNotes)
	assert.Equal(t, "incomplete", *rejected.RejectionNotes)
	assert.Equal(t, entity.LabRequestStatusRejected, *f.stored(t, booked.ID).LabStatus)

	previous, err := f.lab.PreviousResults(ctx, lab.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LabResults(r1), previous)

	reactivated, err := f.lab.Reactivate(ctx, f.actor(f.doctor), lab.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.LabRequestStatusAssigned, reactivated.Status)
	assert.Equal(t, entity.LabResults(r1), reactivated.PreviousResults)
	assert.Empty(t, reactivated.Results)
	assert.Equal(t, 2, reactivated.Attempt)
	assert.True(t, reactivated.IsAssignedTo(f.staff.ID))
	assert.Equal(t, entity.LabRequestStatusAssigned, *f.stored(t, booked.ID).LabStatus)

	previous, err = f.lab.PreviousResults(ctx, lab.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LabResults(r1), previous)

	completed, err := f.lab.SubmitResults(ctx, f.actor(f.staff), lab.ID, r2)
	require.NoError(t, err)
	assert.Equal(t, entity.LabRequestStatusCompleted, completed.Status)
	assert.Equal(t, entity.LabResults(r2), completed.Results)
	assert.Equal(t, entity.LabResults(r1), completed.PreviousResults)

	assert.Equal(t, []entity.EventType{
		entity.EventAppointmentBooked,
		entity.EventLabRequestCreated,
		entity.EventLabRequestClaimed,
		entity.EventLabRequestCompleted,
		entity.EventLabRequestRejected,
		entity.EventLabRequestReactivated,
		entity.EventLabRequestCompleted,
	}, f.events.Types())
}

func TestLabRequestUsecase_Reactivate_Reassign(t *testing.T) {
	f := newClinicFixture(t, clinicDay.Add(-48*time.Hour))
	_, lab := f.bookWithLab(t, at(8, 0))
	ctx := context.Background()
	results := []entity.LabTestResult{{Name: "pH", Value: "6.0"}}

	_, err := f.lab.Reactivate(ctx, f.actor(f.staff), lab.ID, nil)
	assert.True(t, errors.Is(err, entity.ErrInvalidLabTransition))

	_, err = f.lab.Claim(ctx, f.actor(f.staff), lab.ID)
	require.NoError(t, err)
	_, err = f.lab.SubmitResults(ctx, f.actor(f.staff), lab.ID, results)
	require.NoError(t, err)
	_, err = f.lab.Reject(ctx, f.actor(f.doctor), lab.ID, "sample contaminated")
	require.NoError(t, err)

	_, err = f.lab.Reactivate(ctx, f.actor(f.patient), lab.ID, nil)
	assert.True(t, errors.Is(err, ErrStaffOnly))

	doctorID := f.doctor.ID
	_, err = f.lab.Reactivate(ctx, f.actor(f.staff), lab.ID, &doctorID)
	assert.True(t, errors.Is(err, ErrInvalidReassignee))

	staff2 := f.staff2.ID
	reactivated, err := f.lab.Reactivate(ctx, f.actor(f.staff), lab.ID, &staff2)
	require.NoError(t, err)
	assert.True(t, reactivated.IsAssignedTo(f.staff2.ID))

	_, err = f.lab.SubmitResults(ctx, f.actor(f.staff), lab.ID, results)
	assert.True(t, errors.Is(err, ErrNotLabAssignee))

	mine, err := f.lab.ListByStaff(ctx, f.staff2.ID, entity.LabRequestStatusAssigned)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestLabRequestUsecase_GetForAppointment(t *testing.T) {
	f := newClinicFixture(t, clinicDay.Add(-48*time.Hour))
	booked, lab := f.bookWithLab(t, at(8, 0))
	ctx := context.Background()

	found, err := f.lab.GetForAppointment(ctx, f.actor(f.patient), booked.ID)
	require.NoError(t, err)
	assert.Equal(t, lab.ID, found.ID)

	stranger := entity.Actor{UserID: uuid.New(), RoleID: entity.RoleIDPatient}
	_, err = f.lab.GetForAppointment(ctx, stranger, booked.ID)
	assert.True(t, errors.Is(err, ErrNotParticipant))

	plain := f.seed(entity.AppointmentStatusConfirmed, at(11, 0), false)
	_, err = f.lab.GetForAppointment(ctx, f.actor(f.patient), plain.ID)
	assert.True(t, errors.Is(err, ErrLabRequestNotFound))
}
