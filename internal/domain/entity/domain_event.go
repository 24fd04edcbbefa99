package entity

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventAppointmentBooked      EventType = "appointment.booked"
	EventAppointmentConfirmed   EventType = "appointment.confirmed"
	EventAppointmentCancelled   EventType = "appointment.cancelled"
	EventAppointmentCheckedIn   EventType = "appointment.checked_in"
	EventAppointmentUnderReview EventType = "appointment.under_review"
	EventAppointmentCompleted   EventType = "appointment.completed"
	EventAppointmentNoShow      EventType = "appointment.no_show"
	EventAppointmentPaid        EventType = "appointment.paid"
	EventLabRequestCreated      EventType = "lab_request.created"
	EventLabRequestClaimed      EventType = "lab_request.claimed"
	EventLabRequestCompleted    EventType = "lab_request.completed"
	EventLabRequestRejected     EventType = "lab_request.rejected"
	EventLabRequestReactivated  EventType = "lab_request.reactivated"
	EventVideoCredentialIssued  EventType = "video.credential_issued"
	EventVideoSessionEnded      EventType = "video.session_ended"
)

const (
	AggregateAppointment = "appointment"
	AggregateLabRequest  = "lab_request"
)

// userFacing lists the events forwarded to the notification dispatcher.
var userFacing = map[EventType]bool{
	EventAppointmentBooked:    true,
	EventAppointmentConfirmed: true,
	EventAppointmentCancelled: true,
	EventAppointmentNoShow:    true,
	EventAppointmentCompleted: true,
	EventLabRequestCompleted:  true,
	EventLabRequestRejected:   true,
}

// DomainEvent is emitted after every committed transition.
type DomainEvent struct {
	ID          uuid.UUID  `json:"id"`
	Type        EventType  `json:"type"`
	Aggregate   string     `json:"aggregate"`
	AggregateID uuid.UUID  `json:"aggregate_id"`
	ActorID     *uuid.UUID `json:"actor_id,omitempty"`
	Payload     JSON       `json:"payload,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

func (e DomainEvent) IsUserFacing() bool {
	return userFacing[e.Type]
}

// NewAppointmentEvent builds an event carrying the appointment's status and participants.
func NewAppointmentEvent(t EventType, a *Appointment, actor Actor, at time.Time) DomainEvent {
	return DomainEvent{
		ID:          uuid.New(),
		Type:        t,
		Aggregate:   AggregateAppointment,
		AggregateID: a.ID,
		ActorID:     actor.Ref(),
		Payload: JSON{
			"status":       string(a.Status),
			"doctor_id":    a.DoctorID.String(),
			"patient_id":   a.PatientID.String(),
			"scheduled_at": a.ScheduledAt.Format(time.RFC3339),
			"is_online":    a.IsOnline,
		},
		OccurredAt: at,
	}
}

// NewLabRequestEvent builds an event carrying the lab request's status and owner.
func NewLabRequestEvent(t EventType, l *LabRequest, actor Actor, at time.Time) DomainEvent {
	payload := JSON{
		"status":         string(l.Status),
		"appointment_id": l.AppointmentID.String(),
		"attempt":        l.Attempt,
	}
	if l.AssignedStaffID != nil {
		payload["assigned_staff_id"] = l.AssignedStaffID.String()
	}
	return DomainEvent{
		ID:          uuid.New(),
		Type:        t,
		Aggregate:   AggregateLabRequest,
		AggregateID: l.ID,
		ActorID:     actor.Ref(),
		Payload:     payload,
		OccurredAt:  at,
	}
}
