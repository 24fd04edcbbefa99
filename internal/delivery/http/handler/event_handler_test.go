package handler

import (
	"testing"
	"time"

	"clinic-orchestrator/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanSee(t *testing.T) {
	doctor := entity.Actor{UserID: uuid.New(), RoleID: entity.RoleIDDoctor}
	patient := entity.Actor{UserID: uuid.New(), RoleID: entity.RoleIDPatient}
	staff := entity.Actor{UserID: uuid.New(), RoleID: entity.RoleIDStaff}
	otherPatient := entity.Actor{UserID: uuid.New(), RoleID: entity.RoleIDPatient}
	otherDoctor := entity.Actor{UserID: uuid.New(), RoleID: entity.RoleIDDoctor}

	appointment := &entity.Appointment{ID: uuid.New(), DoctorID: doctor.UserID, PatientID: patient.UserID}
	booked := entity.NewAppointmentEvent(entity.EventAppointmentBooked, appointment, patient, time.Now())
	lab := entity.NewLabRequestEvent(entity.EventLabRequestCompleted, &entity.LabRequest{ID: uuid.New(), AppointmentID: appointment.ID}, staff, time.Now())

	assert.True(t, canSee(staff, booked))
	assert.True(t, canSee(patient, booked))
	assert.True(t, canSee(doctor, booked))
	assert.False(t, canSee(otherPatient, booked))
	assert.False(t, canSee(otherDoctor, booked))

	assert.True(t, canSee(staff, lab))
	assert.True(t, canSee(doctor, lab))
	assert.False(t, canSee(patient, lab))
}
