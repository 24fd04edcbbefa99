package usecase

import (
	"context"
	"errors"
	"time"

	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/internal/domain/repository"
	"clinic-orchestrator/internal/domain/window"
	"clinic-orchestrator/internal/service"
	"clinic-orchestrator/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrAppointmentNotFound = apperror.NotFound("appointment_not_found", "appointment not found")
	ErrPatientNotFound     = apperror.NotFound("patient_not_found", "patient not found")
	ErrNotParticipant      = apperror.Forbidden("not_participant", "appointment does not belong to you")
	ErrSlotBeingBooked     = apperror.Conflict("slot_being_booked", "this slot is being booked by someone else, please pick another slot")
	ErrAppointmentChanged  = apperror.Conflict("appointment_changed", "appointment was modified concurrently, please reload")
	ErrOnlineNotOffered    = apperror.Validation("online_not_offered", "this service is not offered as an online consultation")
	ErrNotOnline           = apperror.Precondition("not_online", "appointment is not an online consultation")
	ErrCannotMarkPaid      = apperror.Precondition("cannot_mark_paid", "appointment is cancelled or already paid")
)

const (
	defaultCancelReason = "Cancelled by request"
	anonymousPatient    = "Anonymous patient"
	noShowSweepBatch    = 100
)

type AppointmentUsecase interface {
	Book(ctx context.Context, cmd *BookingCommand) (*entity.Appointment, error)
	Confirm(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, error)
	Cancel(ctx context.Context, actor entity.Actor, id uuid.UUID, reason string) (*entity.Appointment, error)
	CheckIn(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, error)
	PutUnderReview(ctx context.Context, actor entity.Actor, id uuid.UUID, vitals, notes string) (*entity.Appointment, error)
	StartVideoReview(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, error)
	Complete(ctx context.Context, actor entity.Actor, id uuid.UUID, doctorNotes string) (*entity.Appointment, error)
	CompleteFromVideoSession(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, error)
	MarkNoShow(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, error)
	SweepNoShows(ctx context.Context) (int, error)
	MarkPaid(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, error)
	RecordLabOutcome(ctx context.Context, appointmentID uuid.UUID, status entity.LabRequestStatus) error
	Get(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]entity.Appointment, error)
	ListForDoctor(ctx context.Context, doctorID uuid.UUID, filter entity.AppointmentFilter) ([]entity.Appointment, error)
}

type appointmentUsecase struct {
	log             *logrus.Logger
	clock           window.Clock
	policy          window.Policy
	noShowGrace     time.Duration
	appointmentRepo repository.AppointmentRepository
	userRepo        repository.UserRepository
	slots           SlotUsecase
	locker          service.SlotLocker
	events          service.EventPublisher
}

func NewAppointmentUsecase(
	log *logrus.Logger,
	clock window.Clock,
	policy window.Policy,
	noShowGrace time.Duration,
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	slots SlotUsecase,
	locker service.SlotLocker,
	events service.EventPublisher,
) AppointmentUsecase {
	return &appointmentUsecase{
		log:             log,
		clock:           clock,
		policy:          policy,
		noShowGrace:     noShowGrace,
		appointmentRepo: appointmentRepo,
		userRepo:        userRepo,
		slots:           slots,
		locker:          locker,
		events:          events,
	}
}

// Book commits a built booking.
//
// Flow:
// 1. Resolve doctor, service and patient
// 2. Take the Redis slot lock (a concurrent booking of the same slot fails fast)
// 3. Re-check slot availability at commit time
// 4. Insert inside a transaction that re-checks overlap (plus the exclusion constraint)
// 5. Spawn the lab request in the same transaction when auto-confirmed and required
func (u *appointmentUsecase) Book(ctx context.Context, cmd *BookingCommand) (*entity.Appointment, error) {
	_, clinicService, err := u.slots.Lookup(ctx, cmd.DoctorID, cmd.ServiceID)
	if err != nil {
		return nil, err
	}
	if cmd.IsOnline && !clinicService.OnlineAllowed {
		return nil, ErrOnlineNotOffered
	}

	patient, err := u.userRepo.FindByID(ctx, cmd.PatientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", cmd.PatientID, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	status := entity.AppointmentStatusPending
	if cmd.AutoConfirm {
		status = entity.AppointmentStatusConfirmed
	}

	appointment := &entity.Appointment{
		ID:              uuid.New(),
		DoctorID:        cmd.DoctorID,
		PatientID:       cmd.PatientID,
		ServiceID:       cmd.ServiceID,
		ScheduledAt:     cmd.StartsAt,
		EndsAt:          cmd.StartsAt.Add(clinicService.Duration()),
		DurationMinutes: clinicService.DurationMinutes,
		IsOnline:        cmd.IsOnline,
		IsAnonymous:     cmd.IsAnonymous,
		PaymentMethod:   cmd.PaymentMethod,
		Symptoms:        cmd.Symptoms,
		MedicalHistory:  cmd.MedicalHistory,
		Notes:           cmd.Notes,
		Status:          status,
	}

	var lab *entity.LabRequest
	if status == entity.AppointmentStatusConfirmed && clinicService.RequiresLabWork {
		lab = entity.NewLabRequest(appointment, displayName(appointment, patient), clinicService)
		labStatus := lab.Status
		appointment.LabStatus = &labStatus
	}

	err = u.locker.WithSlotLock(ctx, cmd.DoctorID, cmd.StartsAt, func(lockedCtx context.Context) error {
		if err := u.slots.CheckBookable(lockedCtx, cmd.DoctorID, clinicService, cmd.StartsAt); err != nil {
			return err
		}
		return u.appointmentRepo.CreateIfSlotFree(lockedCtx, appointment, lab)
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLockNotAcquired):
			return nil, ErrSlotBeingBooked
		case errors.Is(err, repository.ErrSlotTaken):
			return nil, ErrSlotAlreadyTaken
		case apperror.KindOf(err) != "":
			return nil, err
		}
		u.log.Warnf("Failed to book slot %s for doctor %s: %+v", cmd.StartsAt, cmd.DoctorID, err)
		return nil, err
	}

	now := u.clock.Now()
	actor := entity.Actor{UserID: cmd.PatientID, RoleID: entity.RoleIDPatient}

	booked := u.reload(ctx, appointment)
	u.log.Infof("Appointment booked: id=%s, doctor=%s, at=%s, status=%s", booked.ID, booked.DoctorID, booked.ScheduledAt, booked.Status)
	u.events.Publish(ctx, entity.NewAppointmentEvent(entity.EventAppointmentBooked, booked, actor, now))
	if lab != nil {
		u.events.Publish(ctx, entity.NewLabRequestEvent(entity.EventLabRequestCreated, lab, actor, now))
	}
	return booked, nil
}

// Confirm moves PENDING to CONFIRMED and spawns the lab request when the service needs one.
func (u *appointmentUsecase) Confirm(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsOperator() {
		return nil, ErrNotParticipant
	}

	next, err := entity.NextStatus(appointment.Status, entity.ActionConfirm)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	var lab *entity.LabRequest
	if appointment.Service.RequiresLabWork {
		lab = entity.NewLabRequest(appointment, displayName(appointment, &appointment.Patient), &appointment.Service)
		fields["lab_status"] = lab.Status
	}

	return u.commit(ctx, actor, appointment, next, entity.EventAppointmentConfirmed, fields, lab)
}

// Cancel is rejected once checked in, and within the cancellation cutoff.
func (u *appointmentUsecase) Cancel(ctx context.Context, actor entity.Actor, id uuid.UUID, reason string) (*entity.Appointment, error) {
	appointment, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(actor, appointment) {
		return nil, ErrNotParticipant
	}

	next, err := entity.NextStatus(appointment.Status, entity.ActionCancel)
	if err != nil {
		return nil, err
	}

	now := u.clock.Now()
	if err := u.policy.Cancel(now, appointment.ScheduledAt); err != nil {
		return nil, err
	}

	if reason == "" {
		reason = defaultCancelReason
	}

	return u.commit(ctx, actor, appointment, next, entity.EventAppointmentCancelled, map[string]interface{}{
		"cancel_reason": reason,
		"cancelled_at":  now,
	}, nil)
}

func (u *appointmentUsecase) CheckIn(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsOperator() && appointment.PatientID != actor.UserID {
		return nil, ErrNotParticipant
	}

	next, err := entity.NextStatus(appointment.Status, entity.ActionCheckIn)
	if err != nil {
		return nil, err
	}

	now := u.clock.Now()
	if err := u.policy.CheckIn(now, appointment.ScheduledAt); err != nil {
		return nil, err
	}

	return u.commit(ctx, actor, appointment, next, entity.EventAppointmentCheckedIn, map[string]interface{}{
		"checked_in":    true,
		"checked_in_at": now,
	}, nil)
}

func (u *appointmentUsecase) PutUnderReview(ctx context.Context, actor entity.Actor, id uuid.UUID, vitals, notes string) (*entity.Appointment, error) {
	appointment, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAttendingDoctor(actor, appointment) {
		return nil, ErrNotParticipant
	}

	next, err := entity.NextStatus(appointment.Status, entity.ActionReview)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if vitals != "" {
		fields["vitals"] = vitals
	}
	if notes != "" {
		fields["doctor_notes"] = notes
	}
	return u.commit(ctx, actor, appointment, next, entity.EventAppointmentUnderReview, fields, nil)
}

// StartVideoReview is triggered when the doctor joins an online consultation.
// It only acts on CONFIRMED appointments and is a no-op otherwise.
func (u *appointmentUsecase) StartVideoReview(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appointment.IsOnline {
		return nil, ErrNotOnline
	}
	if appointment.Status != entity.AppointmentStatusConfirmed {
		return appointment, nil
	}

	next, err := entity.NextStatus(appointment.Status, entity.ActionReview)
	if err != nil {
		return nil, err
	}

	updated, err := u.commit(ctx, actor, appointment, next, entity.EventAppointmentUnderReview, nil, nil)
	if errors.Is(err, ErrAppointmentChanged) {
		// Both credentials can be requested at once; the loser just observes the winner's state.
		return u.find(ctx, id)
	}
	return updated, err
}

func (u *appointmentUsecase) Complete(ctx context.Context, actor entity.Actor, id uuid.UUID, doctorNotes string) (*entity.Appointment, error) {
	appointment, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAttendingDoctor(actor, appointment) {
		return nil, ErrNotParticipant
	}
	return u.complete(ctx, actor, appointment, doctorNotes)
}

func (u *appointmentUsecase) CompleteFromVideoSession(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appointment.IsOnline {
		return nil, ErrNotOnline
	}
	return u.complete(ctx, actor, appointment, "")
}

func (u *appointmentUsecase) complete(ctx context.Context, actor entity.Actor, appointment *entity.Appointment, doctorNotes string) (*entity.Appointment, error) {
	next, err := entity.NextStatus(appointment.Status, entity.ActionComplete)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"completed_at": u.clock.Now()}
	if doctorNotes != "" {
		fields["doctor_notes"] = doctorNotes
	}
	return u.commit(ctx, actor, appointment, next, entity.EventAppointmentCompleted, fields, nil)
}

func (u *appointmentUsecase) MarkNoShow(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsOperator() {
		return nil, ErrNotParticipant
	}

	next, err := entity.NextStatus(appointment.Status, entity.ActionNoShow)
	if err != nil {
		return nil, err
	}
	if err := u.policy.Passed(u.clock.Now(), appointment.ScheduledAt, 0); err != nil {
		return nil, err
	}

	return u.commit(ctx, actor, appointment, next, entity.EventAppointmentNoShow, nil, nil)
}

// SweepNoShows marks every PENDING/CONFIRMED appointment whose scheduled time plus
// the grace period has passed. Returns how many were marked.
func (u *appointmentUsecase) SweepNoShows(ctx context.Context) (int, error) {
	marked := 0
	for {
		cutoff := u.clock.Now().Add(-u.noShowGrace)
		overdue, err := u.appointmentRepo.FindOverdue(ctx, cutoff, noShowSweepBatch)
		if err != nil {
			u.log.Warnf("Failed to find overdue appointments: %+v", err)
			return marked, err
		}

		for i := range overdue {
			appointment := &overdue[i]
			next, err := entity.NextStatus(appointment.Status, entity.ActionNoShow)
			if err != nil {
				continue
			}
			if _, err := u.commit(ctx, entity.SystemActor, appointment, next, entity.EventAppointmentNoShow, nil, nil); err != nil {
				if errors.Is(err, ErrAppointmentChanged) {
					u.log.Debugf("Appointment %s changed during no-show sweep", appointment.ID)
					continue
				}
				return marked, err
			}
			marked++
		}

		if len(overdue) < noShowSweepBatch {
			break
		}
		select {
		case <-ctx.Done():
			return marked, ctx.Err()
		default:
		}
	}

	if marked > 0 {
		u.log.Infof("No-show sweep marked %d appointments", marked)
	}
	return marked, nil
}

func (u *appointmentUsecase) MarkPaid(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsOperator() {
		return nil, ErrNotParticipant
	}
	if appointment.IsPaid || appointment.Status == entity.AppointmentStatusCancelled {
		return nil, ErrCannotMarkPaid
	}

	now := u.clock.Now()
	if err := u.appointmentRepo.MarkPaid(ctx, id, now); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, ErrCannotMarkPaid
		}
		u.log.Warnf("Failed to mark appointment %s paid: %+v", id, err)
		return nil, err
	}

	appointment.IsPaid = true
	appointment.PaidAt = &now
	paid := u.reload(ctx, appointment)
	u.events.Publish(ctx, entity.NewAppointmentEvent(entity.EventAppointmentPaid, paid, actor, now))
	return paid, nil
}

// RecordLabOutcome mirrors the lab request status onto its appointment.
func (u *appointmentUsecase) RecordLabOutcome(ctx context.Context, appointmentID uuid.UUID, status entity.LabRequestStatus) error {
	if err := u.appointmentRepo.UpdateLabStatus(ctx, appointmentID, status); err != nil {
		u.log.Warnf("Failed to record lab status %s on appointment %s: %+v", status, appointmentID, err)
		return err
	}
	return nil
}

func (u *appointmentUsecase) Get(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(actor, appointment) {
		return nil, ErrNotParticipant
	}
	return appointment, nil
}

func (u *appointmentUsecase) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]entity.Appointment, error) {
	appointments, err := u.appointmentRepo.FindAll(ctx, entity.AppointmentFilter{PatientID: &patientID})
	if err != nil {
		u.log.Warnf("Failed to find appointments for patient %s: %+v", patientID, err)
		return nil, err
	}
	return appointments, nil
}

func (u *appointmentUsecase) ListForDoctor(ctx context.Context, doctorID uuid.UUID, filter entity.AppointmentFilter) ([]entity.Appointment, error) {
	filter.DoctorID = &doctorID
	appointments, err := u.appointmentRepo.FindAll(ctx, filter)
	if err != nil {
		u.log.Warnf("Failed to find appointments for doctor %s: %+v", doctorID, err)
		return nil, err
	}
	return appointments, nil
}

func (u *appointmentUsecase) find(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	return appointment, nil
}

// commit applies a status change that NextStatus already accepted. The repository
// compares the stored status with appointment.Status, so a concurrent writer makes
// this fail with ErrAppointmentChanged instead of being overwritten.
func (u *appointmentUsecase) commit(
	ctx context.Context,
	actor entity.Actor,
	appointment *entity.Appointment,
	next entity.AppointmentStatus,
	event entity.EventType,
	fields map[string]interface{},
	lab *entity.LabRequest,
) (*entity.Appointment, error) {
	change := repository.StatusChange{
		AppointmentID: appointment.ID,
		From:          appointment.Status,
		To:            next,
		Fields:        fields,
		SpawnLab:      lab,
	}
	if err := u.appointmentRepo.ApplyTransition(ctx, change); err != nil {
		if errors.Is(err, repository.ErrStaleState) || errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAppointmentChanged
		}
		u.log.Warnf("Failed to move appointment %s from %s to %s: %+v", appointment.ID, appointment.Status, next, err)
		return nil, err
	}

	u.log.Infof("Appointment %s: %s -> %s", appointment.ID, appointment.Status, next)

	appointment.Status = next
	updated := u.reload(ctx, appointment)

	now := u.clock.Now()
	u.events.Publish(ctx, entity.NewAppointmentEvent(event, updated, actor, now))
	if lab != nil {
		u.events.Publish(ctx, entity.NewLabRequestEvent(entity.EventLabRequestCreated, lab, actor, now))
	}
	return updated, nil
}

// reload returns the stored row, or fallback when it cannot be read back.
func (u *appointmentUsecase) reload(ctx context.Context, fallback *entity.Appointment) *entity.Appointment {
	stored, err := u.appointmentRepo.FindByID(ctx, fallback.ID)
	if err != nil || stored == nil {
		u.log.Warnf("Failed to reload appointment %s: %+v", fallback.ID, err)
		return fallback
	}
	return stored
}

func canAccess(actor entity.Actor, appointment *entity.Appointment) bool {
	return actor.IsOperator() || appointment.IsParticipant(actor.UserID)
}

func isAttendingDoctor(actor entity.Actor, appointment *entity.Appointment) bool {
	return actor.IsAdmin() || actor.IsSystem() || (actor.IsDoctor() && appointment.DoctorID == actor.UserID)
}

func displayName(appointment *entity.Appointment, patient *entity.User) string {
	if appointment.IsAnonymous || patient == nil || patient.FullName == "" {
		return anonymousPatient
	}
	return patient.FullName
}
