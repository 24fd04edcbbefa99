package usecase

import (
	"context"
	"errors"
	"strings"

	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/internal/domain/repository"
	"clinic-orchestrator/internal/domain/window"
	"clinic-orchestrator/internal/service"
	"clinic-orchestrator/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrLabRequestNotFound  = apperror.NotFound("lab_request_not_found", "lab request not found")
	ErrLabRequestClaimed   = apperror.Conflict("lab_request_claimed", "lab request was already claimed by another staff member, refresh the queue")
	ErrLabRequestChanged   = apperror.Conflict("lab_request_changed", "lab request was modified concurrently, please reload")
	ErrNotLabAssignee      = apperror.Forbidden("not_lab_assignee", "lab request is assigned to someone else")
	ErrStaffOnly           = apperror.Forbidden("staff_only", "only staff members can work the lab queue")
	ErrDoctorOnly          = apperror.Forbidden("doctor_only", "only doctors can reject lab results")
	ErrRejectionNotesEmpty = apperror.Validation("rejection_notes_required", "rejection notes are required")
	ErrNoLabResults        = apperror.Validation("lab_results_required", "at least one result with name and value is required")
	ErrInvalidReassignee   = apperror.Validation("invalid_reassignee", "lab requests can only be reassigned to staff members")
)

type LabRequestUsecase interface {
	ListPending(ctx context.Context) ([]entity.LabRequest, error)
	Claim(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.LabRequest, error)
	SubmitResults(ctx context.Context, actor entity.Actor, id uuid.UUID, results []entity.LabTestResult) (*entity.LabRequest, error)
	Reject(ctx context.Context, actor entity.Actor, id uuid.UUID, notes string) (*entity.LabRequest, error)
	// Reactivate sends a rejected request back to work. reassignTo, when set, replaces the assignee.
	Reactivate(ctx context.Context, actor entity.Actor, id uuid.UUID, reassignTo *uuid.UUID) (*entity.LabRequest, error)
	PreviousResults(ctx context.Context, id uuid.UUID) (entity.LabResults, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.LabRequest, error)
	// GetForAppointment returns the request spawned by an appointment the actor can see.
	GetForAppointment(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID) (*entity.LabRequest, error)
	ListByStaff(ctx context.Context, staffID uuid.UUID, status entity.LabRequestStatus) ([]entity.LabRequest, error)
}

type labRequestUsecase struct {
	log          *logrus.Logger
	clock        window.Clock
	labRepo      repository.LabRequestRepository
	userRepo     repository.UserRepository
	appointments AppointmentUsecase
	events       service.EventPublisher
}

func NewLabRequestUsecase(
	log *logrus.Logger,
	clock window.Clock,
	labRepo repository.LabRequestRepository,
	userRepo repository.UserRepository,
	appointments AppointmentUsecase,
	events service.EventPublisher,
) LabRequestUsecase {
	return &labRequestUsecase{
		log:          log,
		clock:        clock,
		labRepo:      labRepo,
		userRepo:     userRepo,
		appointments: appointments,
		events:       events,
	}
}

func (u *labRequestUsecase) ListPending(ctx context.Context) ([]entity.LabRequest, error) {
	requests, err := u.labRepo.FindPending(ctx)
	if err != nil {
		u.log.Warnf("Failed to list pending lab requests: %+v", err)
		return nil, err
	}
	if requests == nil {
		requests = []entity.LabRequest{}
	}
	return requests, nil
}

// Claim assigns a pending request to the calling staff member. The repository flips
// the status only while the request is still unassigned, so of N concurrent claims
// exactly one wins.
func (u *labRequestUsecase) Claim(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.LabRequest, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	request, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.AssignedStaffID != nil {
		return nil, ErrLabRequestClaimed
	}
	if _, _, err := entity.NextLabStatus(request.Status, entity.LabActionClaim); err != nil {
		return nil, err
	}

	if err := u.labRepo.Claim(ctx, id, actor.UserID, u.clock.Now()); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, ErrLabRequestClaimed
		}
		u.log.Warnf("Failed to claim lab request %s: %+v", id, err)
		return nil, err
	}

	u.log.Infof("Lab request %s claimed by %s", id, actor.UserID)
	return u.reloadAndPublish(ctx, actor, id, entity.EventLabRequestClaimed)
}

func (u *labRequestUsecase) SubmitResults(ctx context.Context, actor entity.Actor, id uuid.UUID, results []entity.LabTestResult) (*entity.LabRequest, error) {
	if !hasResults(results) {
		return nil, ErrNoLabResults
	}

	request, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}

	from, to, err := entity.NextLabStatus(request.Status, entity.LabActionSubmit)
	if err != nil {
		return nil, err
	}
	if !request.IsAssignedTo(actor.UserID) {
		return nil, ErrNotLabAssignee
	}

	change := repository.LabStatusChange{
		RequestID:        id,
		From:             from,
		To:               to,
		ExpectedAssignee: &actor.UserID,
		Fields: map[string]interface{}{
			"results":      entity.LabResults(results),
			"completed_at": u.clock.Now(),
		},
	}
	if err := u.apply(ctx, change); err != nil {
		return nil, err
	}

	u.mirrorStatus(ctx, request.AppointmentID, to)
	return u.reloadAndPublish(ctx, actor, id, entity.EventLabRequestCompleted)
}

// Reject keeps the submitted results attached; they become the previous results on reactivation.
func (u *labRequestUsecase) Reject(ctx context.Context, actor entity.Actor, id uuid.UUID, notes string) (*entity.LabRequest, error) {
	if !actor.IsDoctor() {
		return nil, ErrDoctorOnly
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, ErrRejectionNotesEmpty
	}

	request, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}

	from, to, err := entity.NextLabStatus(request.Status, entity.LabActionReject)
	if err != nil {
		return nil, err
	}

	change := repository.LabStatusChange{
		RequestID: id,
		From:      from,
		To:        to,
		Fields: map[string]interface{}{
			"rejection_notes": notes,
			"rejected_by":     actor.UserID,
			"rejected_at":     u.clock.Now(),
		},
	}
	if err := u.apply(ctx, change); err != nil {
		return nil, err
	}

	u.mirrorStatus(ctx, request.AppointmentID, to)
	return u.reloadAndPublish(ctx, actor, id, entity.EventLabRequestRejected)
}

// Reactivate moves the rejected results into previous_results and clears the current
// set so the next submission starts from the snapshot instead of overwriting it.
func (u *labRequestUsecase) Reactivate(ctx context.Context, actor entity.Actor, id uuid.UUID, reassignTo *uuid.UUID) (*entity.LabRequest, error) {
	if !actor.IsOperator() && !actor.IsDoctor() {
		return nil, ErrStaffOnly
	}

	request, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}

	from, to, err := entity.NextLabStatus(request.Status, entity.LabActionReactivate)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"previous_results": request.Results,
		"results":          nil,
		"completed_at":     nil,
		"attempt":          request.Attempt + 1,
	}

	if reassignTo != nil && !request.IsAssignedTo(*reassignTo) {
		staff, err := u.userRepo.FindByID(ctx, *reassignTo)
		if err != nil {
			u.log.Warnf("Failed to find staff %s: %+v", *reassignTo, err)
			return nil, err
		}
		if staff == nil || !staff.IsStaff() {
			return nil, ErrInvalidReassignee
		}
		fields["assigned_staff_id"] = *reassignTo
		fields["claimed_at"] = u.clock.Now()
	}

	change := repository.LabStatusChange{RequestID: id, From: from, To: to, Fields: fields}
	if err := u.apply(ctx, change); err != nil {
		return nil, err
	}

	u.mirrorStatus(ctx, request.AppointmentID, to)
	return u.reloadAndPublish(ctx, actor, id, entity.EventLabRequestReactivated)
}

// PreviousResults returns the snapshot to pre-populate a new submission with.
func (u *labRequestUsecase) PreviousResults(ctx context.Context, id uuid.UUID) (entity.LabResults, error) {
	request, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status == entity.LabRequestStatusRejected {
		return request.Results, nil
	}
	return request.PreviousResults, nil
}

func (u *labRequestUsecase) Get(ctx context.Context, id uuid.UUID) (*entity.LabRequest, error) {
	return u.find(ctx, id)
}

func (u *labRequestUsecase) GetForAppointment(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID) (*entity.LabRequest, error) {
	if _, err := u.appointments.Get(ctx, actor, appointmentID); err != nil {
		return nil, err
	}

	request, err := u.labRepo.FindByAppointmentID(ctx, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find lab request of appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if request == nil {
		return nil, ErrLabRequestNotFound
	}
	return request, nil
}

func (u *labRequestUsecase) ListByStaff(ctx context.Context, staffID uuid.UUID, status entity.LabRequestStatus) ([]entity.LabRequest, error) {
	requests, err := u.labRepo.FindAll(ctx, entity.LabRequestFilter{AssignedStaffID: &staffID, Status: status})
	if err != nil {
		u.log.Warnf("Failed to list lab requests of staff %s: %+v", staffID, err)
		return nil, err
	}
	return requests, nil
}

func (u *labRequestUsecase) find(ctx context.Context, id uuid.UUID) (*entity.LabRequest, error) {
	request, err := u.labRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find lab request %s: %+v", id, err)
		return nil, err
	}
	if request == nil {
		return nil, ErrLabRequestNotFound
	}
	return request, nil
}

func (u *labRequestUsecase) apply(ctx context.Context, change repository.LabStatusChange) error {
	if err := u.labRepo.ApplyTransition(ctx, change); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return ErrLabRequestChanged
		}
		u.log.Warnf("Failed to move lab request %s from %s to %s: %+v", change.RequestID, change.From, change.To, err)
		return err
	}
	u.log.Infof("Lab request %s: %s -> %s", change.RequestID, change.From, change.To)
	return nil
}

// mirrorStatus copies the committed lab status onto the appointment. The lab request
// is the source of truth, so a failed copy is logged by RecordLabOutcome and not returned.
func (u *labRequestUsecase) mirrorStatus(ctx context.Context, appointmentID uuid.UUID, status entity.LabRequestStatus) {
	_ = u.appointments.RecordLabOutcome(ctx, appointmentID, status)
}

func (u *labRequestUsecase) reloadAndPublish(ctx context.Context, actor entity.Actor, id uuid.UUID, event entity.EventType) (*entity.LabRequest, error) {
	request, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	u.events.Publish(ctx, entity.NewLabRequestEvent(event, request, actor, u.clock.Now()))
	return request, nil
}

func hasResults(results []entity.LabTestResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Value) == "" {
			return false
		}
	}
	return true
}
