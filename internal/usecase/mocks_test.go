package usecase

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"clinic-orchestrator/internal/domain/entity"
	"clinic-orchestrator/internal/domain/repository"
	"clinic-orchestrator/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(now time.Time) *fixedClock {
	return &fixedClock{now: now}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// recordingPublisher keeps every published event in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event entity.DomainEvent) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
}

func (p *recordingPublisher) Types() []entity.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]entity.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

func (p *recordingPublisher) Count(t entity.EventType) int {
	n := 0
	for _, got := range p.Types() {
		if got == t {
			n++
		}
	}
	return n
}

// memLocker mirrors the Redis SETNX lock: a held key fails fast.
type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]bool)}
}

func (l *memLocker) WithSlotLock(ctx context.Context, doctorID uuid.UUID, start time.Time, fn func(ctx context.Context) error) error {
	key := service.SlotLockKey(doctorID, start)

	l.mu.Lock()
	if l.held[key] {
		l.mu.Unlock()
		return service.ErrLockNotAcquired
	}
	l.held[key] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()
	return fn(ctx)
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]entity.User
}

func newMemUserRepo(users ...entity.User) *memUserRepo {
	r := &memUserRepo{users: make(map[uuid.UUID]entity.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type memDoctorRepo struct {
	doctors map[uuid.UUID]entity.DoctorProfile
}

func newMemDoctorRepo(doctors ...entity.DoctorProfile) *memDoctorRepo {
	r := &memDoctorRepo{doctors: make(map[uuid.UUID]entity.DoctorProfile)}
	for _, d := range doctors {
		r.doctors[d.UserID] = d
	}
	return r
}

func (r *memDoctorRepo) Create(_ context.Context, profile *entity.DoctorProfile) error {
	r.doctors[profile.UserID] = *profile
	return nil
}

func (r *memDoctorRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.DoctorProfile, error) {
	d, ok := r.doctors[userID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *memDoctorRepo) FindAll(_ context.Context) ([]entity.DoctorProfile, error) {
	all := make([]entity.DoctorProfile, 0, len(r.doctors))
	for _, d := range r.doctors {
		all = append(all, d)
	}
	return all, nil
}

type memServiceRepo struct {
	services map[uuid.UUID]entity.ClinicService
}

func newMemServiceRepo(services ...entity.ClinicService) *memServiceRepo {
	r := &memServiceRepo{services: make(map[uuid.UUID]entity.ClinicService)}
	for _, s := range services {
		r.services[s.ID] = s
	}
	return r
}

func (r *memServiceRepo) Create(_ context.Context, s *entity.ClinicService) error {
	r.services[s.ID] = *s
	return nil
}

func (r *memServiceRepo) FindAll(_ context.Context, activeOnly bool) ([]entity.ClinicService, error) {
	all := make([]entity.ClinicService, 0, len(r.services))
	for _, s := range r.services {
		if activeOnly && !s.IsActive {
			continue
		}
		all = append(all, s)
	}
	return all, nil
}

func (r *memServiceRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.ClinicService, error) {
	s, ok := r.services[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memServiceRepo) Update(_ context.Context, s *entity.ClinicService) error {
	r.services[s.ID] = *s
	return nil
}

// staticSchedule returns the same shifts for every doctor on every day.
type staticSchedule struct {
	startHour, endHour int
	loc                *time.Location
	err                error
}

func (s staticSchedule) GetShiftsForDate(_ context.Context, _ uuid.UUID, date time.Time) ([]entity.Shift, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.endHour <= s.startHour {
		return nil, nil
	}
	day := func(h int) time.Time {
		return time.Date(date.Year(), date.Month(), date.Day(), h, 0, 0, 0, s.loc)
	}
	return []entity.Shift{{Start: day(s.startHour), End: day(s.endHour)}}, nil
}

// memAppointmentRepo keeps conditional updates atomic under one mutex, the way the
// SQL "WHERE status = ?" updates behave.
type memAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]entity.Appointment
	services     *memServiceRepo
	users        *memUserRepo
	labs         *memLabRepo
}

func newMemAppointmentRepo(services *memServiceRepo, users *memUserRepo, labs *memLabRepo) *memAppointmentRepo {
	return &memAppointmentRepo{
		appointments: make(map[uuid.UUID]entity.Appointment),
		services:     services,
		users:        users,
		labs:         labs,
	}
}

func (r *memAppointmentRepo) put(a entity.Appointment) {
	r.mu.Lock()
	r.appointments[a.ID] = a
	r.mu.Unlock()
}

func (r *memAppointmentRepo) CreateIfSlotFree(_ context.Context, appointment *entity.Appointment, lab *entity.LabRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.appointments {
		if existing.DoctorID == appointment.DoctorID && existing.OccupiesSlot() &&
			existing.Overlaps(appointment.ScheduledAt, appointment.EndsAt) {
			return repository.ErrSlotTaken
		}
	}
	r.appointments[appointment.ID] = *appointment
	if lab != nil && r.labs != nil {
		r.labs.put(*lab)
	}
	return nil
}

func (r *memAppointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	r.mu.Lock()
	a, ok := r.appointments[id]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	if r.services != nil {
		if s, _ := r.services.FindByID(ctx, a.ServiceID); s != nil {
			a.Service = *s
		}
	}
	if r.users != nil {
		if u, _ := r.users.FindByID(ctx, a.PatientID); u != nil {
			a.Patient = *u
		}
	}
	return &a, nil
}

func (r *memAppointmentRepo) FindActiveByDoctorBetween(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []entity.Appointment
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.OccupiesSlot() && a.Overlaps(from, to) {
			found = append(found, a)
		}
	}
	return found, nil
}

func (r *memAppointmentRepo) FindAll(_ context.Context, filter entity.AppointmentFilter) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := []entity.Appointment{}
	for _, a := range r.appointments {
		if filter.DoctorID != nil && a.DoctorID != *filter.DoctorID {
			continue
		}
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		found = append(found, a)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ScheduledAt.Before(found[j].ScheduledAt) })
	return found, nil
}

func (r *memAppointmentRepo) FindOverdue(_ context.Context, before time.Time, limit int) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []entity.Appointment
	for _, a := range r.appointments {
		if (a.Status == entity.AppointmentStatusPending || a.Status == entity.AppointmentStatusConfirmed) &&
			a.ScheduledAt.Before(before) {
			found = append(found, a)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ScheduledAt.Before(found[j].ScheduledAt) })
	if len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

func (r *memAppointmentRepo) ApplyTransition(_ context.Context, change repository.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[change.AppointmentID]
	if !ok || a.Status != change.From {
		return repository.ErrStaleState
	}
	if change.SpawnLab != nil && r.labs != nil {
		if existing, _ := r.labs.FindByAppointmentID(context.Background(), a.ID); existing != nil {
			return repository.ErrDuplicate
		}
		r.labs.put(*change.SpawnLab)
	}

	a.Status = change.To
	for key, value := range change.Fields {
		switch key {
		case "cancel_reason":
			a.CancelReason = value.(string)
		case "cancelled_at":
			t := value.(time.Time)
			a.CancelledAt = &t
		case "checked_in":
			a.CheckedIn = value.(bool)
		case "checked_in_at":
			t := value.(time.Time)
			a.CheckedInAt = &t
		case "vitals":
			a.Vitals = value.(string)
		case "doctor_notes":
			a.DoctorNotes = value.(string)
		case "completed_at":
			t := value.(time.Time)
			a.CompletedAt = &t
		case "lab_status":
			s := value.(entity.LabRequestStatus)
			a.LabStatus = &s
		}
	}
	r.appointments[a.ID] = a
	return nil
}

func (r *memAppointmentRepo) MarkPaid(_ context.Context, id uuid.UUID, paidAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.IsPaid || a.Status == entity.AppointmentStatusCancelled {
		return repository.ErrStaleState
	}
	a.IsPaid = true
	a.PaidAt = &paidAt
	r.appointments[id] = a
	return nil
}

func (r *memAppointmentRepo) UpdateLabStatus(_ context.Context, id uuid.UUID, status entity.LabRequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return repository.ErrStaleState
	}
	a.LabStatus = &status
	r.appointments[id] = a
	return nil
}

type memLabRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]entity.LabRequest
	seq      int
}

func newMemLabRepo() *memLabRepo {
	return &memLabRepo{requests: make(map[uuid.UUID]entity.LabRequest)}
}

func (r *memLabRepo) put(l entity.LabRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.CreatedAt.IsZero() {
		r.seq++
		l.CreatedAt = time.Date(2026, 1, 1, 0, 0, r.seq, 0, time.UTC)
	}
	r.requests[l.ID] = l
}

func (r *memLabRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.LabRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *memLabRepo) FindByAppointmentID(_ context.Context, appointmentID uuid.UUID) (*entity.LabRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.requests {
		if l.AppointmentID == appointmentID {
			found := l
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memLabRepo) FindPending(_ context.Context) ([]entity.LabRequest, error) {
	return r.FindAll(context.Background(), entity.LabRequestFilter{Status: entity.LabRequestStatusPending})
}

func (r *memLabRepo) FindAll(_ context.Context, filter entity.LabRequestFilter) ([]entity.LabRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []entity.LabRequest
	for _, l := range r.requests {
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.AssignedStaffID != nil && !l.IsAssignedTo(*filter.AssignedStaffID) {
			continue
		}
		found = append(found, l)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].CreatedAt.Before(found[j].CreatedAt) })
	return found, nil
}

func (r *memLabRepo) Claim(_ context.Context, id, staffID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.requests[id]
	if !ok || l.Status != entity.LabRequestStatusPending || l.AssignedStaffID != nil {
		return repository.ErrStaleState
	}
	l.Status = entity.LabRequestStatusAssigned
	l.AssignedStaffID = &staffID
	l.ClaimedAt = &at
	r.requests[id] = l
	return nil
}

func (r *memLabRepo) ApplyTransition(_ context.Context, change repository.LabStatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.requests[change.RequestID]
	if !ok || l.Status != change.From {
		return repository.ErrStaleState
	}
	if change.ExpectedAssignee != nil && !l.IsAssignedTo(*change.ExpectedAssignee) {
		return repository.ErrStaleState
	}

	l.Status = change.To
	for key, value := range change.Fields {
		switch key {
		case "results":
			l.Results, _ = value.(entity.LabResults)
		case "previous_results":
			l.PreviousResults, _ = value.(entity.LabResults)
		case "completed_at":
			if t, ok := value.(time.Time); ok {
				l.CompletedAt = &t
			} else {
				l.CompletedAt = nil
			}
		case "rejection_notes":
			notes := value.(string)
			l.RejectionNotes = &notes
		case "rejected_by":
			by := value.(uuid.UUID)
			l.RejectedBy = &by
		case "rejected_at":
			t := value.(time.Time)
			l.RejectedAt = &t
		case "attempt":
			l.Attempt = value.(int)
		case "assigned_staff_id":
			staff := value.(uuid.UUID)
			l.AssignedStaffID = &staff
		case "claimed_at":
			t := value.(time.Time)
			l.ClaimedAt = &t
		}
	}
	r.requests[l.ID] = l
	return nil
}
