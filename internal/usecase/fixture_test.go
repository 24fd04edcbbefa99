package usecase

import (
	"context"
	"testing"
	"time"

	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/internal/domain/window"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// clinicDay is the calendar day every fixture schedules on; the doctor works 08:00-12:00.
var clinicDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(clinicDay.Year(), clinicDay.Month(), clinicDay.Day(), hour, minute, 0, 0, time.UTC)
}

type clinicFixture struct {
	clock     *fixedClock
	events    *recordingPublisher
	users     *memUserRepo
	services  *memServiceRepo
	labs      *memLabRepo
	repo      *memAppointmentRepo
	slots     SlotUsecase
	uc        AppointmentUsecase
	lab       LabRequestUsecase
	doctor    entity.User
	patient   entity.User
	staff     entity.User
	staff2    entity.User
	consult   entity.ClinicService
	bloodTest entity.ClinicService
}

func newClinicFixture(t *testing.T, now time.Time) *clinicFixture {
	t.Helper()

	f := &clinicFixture{
		clock:   newFixedClock(now),
		events:  &recordingPublisher{},
		doctor:  entity.User{ID: uuid.New(), RoleID: entity.RoleIDDoctor, FullName: "Dr. Rina", IsActive: true},
		patient: entity.User{ID: uuid.New(), RoleID: entity.RoleIDPatient, FullName: "Budi Santoso", IsActive: true},
		staff:   entity.User{ID: uuid.New(), RoleID: entity.RoleIDStaff, FullName: "Sari", IsActive: true},
		staff2:  entity.User{ID: uuid.New(), RoleID: entity.RoleIDStaff, FullName: "Dewi", IsActive: true},
		consult: entity.ClinicService{
			ID: uuid.New(), Name: "General Consultation", DurationMinutes: 30,
			Price: decimal.NewFromInt(150000), OnlineAllowed: true, IsActive: true,
		},
		bloodTest: entity.ClinicService{
			ID: uuid.New(), Name: "Blood Panel", DurationMinutes: 30,
			Price: decimal.NewFromInt(350000), RequiresLabWork: true, BloodSampleRequired: true, IsActive: true,
		},
	}

	f.users = newMemUserRepo(f.doctor, f.patient, f.staff, f.staff2)
	f.services = newMemServiceRepo(f.consult, f.bloodTest)
	f.labs = newMemLabRepo()
	f.repo = newMemAppointmentRepo(f.services, f.users, f.labs)

	doctors := newMemDoctorRepo(entity.DoctorProfile{UserID: f.doctor.ID, Specialization: "General Practice", User: f.doctor})
	schedule := staticSchedule{startHour: 8, endHour: 12, loc: time.UTC}

	log := quietLogger()
	f.slots = NewSlotUsecase(log, f.clock, time.UTC, doctors, f.services, f.repo, schedule)
	f.uc = NewAppointmentUsecase(log, f.clock, window.DefaultPolicy(), 30*time.Minute,
		f.repo, f.users, f.slots, newMemLocker(), f.events)
	f.lab = NewLabRequestUsecase(log, f.clock, f.labs, f.users, f.uc, f.events)
	return f
}

func (f *clinicFixture) actor(u entity.User) entity.Actor {
	return entity.Actor{UserID: u.ID, RoleID: u.RoleID}
}

func (f *clinicFixture) bookCommand(service entity.ClinicService, start time.Time) *BookingCommand {
	return &BookingCommand{
		DoctorID:      f.doctor.ID,
		ServiceID:     service.ID,
		PatientID:     f.patient.ID,
		StartsAt:      start,
		PaymentMethod: entity.PaymentMethodCash,
		AutoConfirm:   true,
	}
}

// seed stores an appointment directly, bypassing booking windows.
func (f *clinicFixture) seed(status entity.AppointmentStatus, start time.Time, online bool) entity.Appointment {
	a := entity.Appointment{
		ID:              uuid.New(),
		DoctorID:        f.doctor.ID,
		PatientID:       f.patient.ID,
		ServiceID:       f.consult.ID,
		ScheduledAt:     start,
		EndsAt:          start.Add(30 * time.Minute),
		DurationMinutes: 30,
		IsOnline:        online,
		PaymentMethod:   entity.PaymentMethodQR,
		Status:          status,
	}
	f.repo.put(a)
	return a
}

func (f *clinicFixture) stored(t *testing.T, id uuid.UUID) *entity.Appointment {
	t.Helper()
	a, err := f.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, a)
	return a
}
