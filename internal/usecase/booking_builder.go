package usecase

import (
	"time"

	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/pkg/apperror"

	"github.com/google/uuid"
)

var (
	ErrBookingIncomplete = apperror.Validation("booking_incomplete", "booking is missing a required step")
	ErrInvalidStartTime  = apperror.Validation("invalid_start_time", "invalid start time format, use HH:MM")
	ErrAnonymousInPerson = apperror.Validation("anonymous_requires_online", "anonymous consultations are only available online")
	ErrInvalidPayment    = apperror.Validation("invalid_payment_method", "payment method must be CASH or QR")
)

// BookingCommand is a fully validated booking request.
type BookingCommand struct {
	DoctorID       uuid.UUID
	ServiceID      uuid.UUID
	PatientID      uuid.UUID
	StartsAt       time.Time
	IsOnline       bool
	IsAnonymous    bool
	PaymentMethod  entity.PaymentMethod
	Symptoms       string
	MedicalHistory string
	Notes          string
	AutoConfirm    bool
}

// BookingBuilder collects a booking in explicit steps. Nothing is shared or
// persisted until Build returns a command.
type BookingBuilder struct {
	loc *time.Location

	doctorID  uuid.UUID
	serviceID uuid.UUID
	date      string
	startTime string

	patientID      uuid.UUID
	symptoms       string
	medicalHistory string
	notes          string

	online      bool
	anonymous   bool
	payment     entity.PaymentMethod
	autoConfirm bool

	hasSlot, hasPatient, hasPayment bool
}

func NewBookingBuilder(loc *time.Location) *BookingBuilder {
	return &BookingBuilder{loc: loc, autoConfirm: true}
}

func (b *BookingBuilder) Slot(doctorID, serviceID uuid.UUID, date, startTime string) *BookingBuilder {
	b.doctorID, b.serviceID, b.date, b.startTime = doctorID, serviceID, date, startTime
	b.hasSlot = true
	return b
}

func (b *BookingBuilder) Patient(patientID uuid.UUID, symptoms, medicalHistory, notes string) *BookingBuilder {
	b.patientID, b.symptoms, b.medicalHistory, b.notes = patientID, symptoms, medicalHistory, notes
	b.hasPatient = true
	return b
}

func (b *BookingBuilder) Consultation(online, anonymous bool) *BookingBuilder {
	b.online, b.anonymous = online, anonymous
	return b
}

func (b *BookingBuilder) Payment(method entity.PaymentMethod) *BookingBuilder {
	b.payment = method
	b.hasPayment = true
	return b
}

// AutoConfirm controls the initial status: CONFIRMED (default) or PENDING.
func (b *BookingBuilder) AutoConfirm(confirm bool) *BookingBuilder {
	b.autoConfirm = confirm
	return b
}

func (b *BookingBuilder) Build() (*BookingCommand, error) {
	if !b.hasSlot || !b.hasPatient || !b.hasPayment ||
		b.doctorID == uuid.Nil || b.serviceID == uuid.Nil || b.patientID == uuid.Nil {
		return nil, ErrBookingIncomplete
	}

	day, err := time.ParseInLocation(dateLayout, b.date, b.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	startsAt, err := entity.ClockOnDay(day, b.startTime, b.loc)
	if err != nil {
		return nil, ErrInvalidStartTime
	}
	if b.anonymous && !b.online {
		return nil, ErrAnonymousInPerson
	}
	if !b.payment.Valid() {
		return nil, ErrInvalidPayment
	}

	return &BookingCommand{
		DoctorID:       b.doctorID,
		ServiceID:      b.serviceID,
		PatientID:      b.patientID,
		StartsAt:       startsAt,
		IsOnline:       b.online,
		IsAnonymous:    b.anonymous,
		PaymentMethod:  b.payment,
		Symptoms:       b.symptoms,
		MedicalHistory: b.medicalHistory,
		Notes:          b.notes,
		AutoConfirm:    b.autoConfirm,
	}, nil
}
