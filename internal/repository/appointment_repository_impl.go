package repository

import (
	"context"
	"errors"
	"time"

	"clinic-orchestrator/internal/domain/entity"
	domainRepo "clinic-orchestrator/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) domainRepo.AppointmentRepository {
	return &appointmentRepository{db: db}
}

// CreateIfSlotFree serializes bookings per doctor with a transaction-scoped advisory lock,
// re-checks overlap and inserts. The exclusion constraint on appointments backs this up.
func (r *appointmentRepository) CreateIfSlotFree(ctx context.Context, appointment *entity.Appointment, lab *entity.LabRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", appointment.DoctorID.String()).Error; err != nil {
			return err
		}

		var overlapping int64
		err := tx.Model(&entity.Appointment{}).
			Where("doctor_id = ? AND status <> ? AND scheduled_at < ? AND ends_at > ?",
				appointment.DoctorID, entity.AppointmentStatusCancelled, appointment.EndsAt, appointment.ScheduledAt).
			Count(&overlapping).Error
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return domainRepo.ErrSlotTaken
		}

		if err := tx.Omit(clause.Associations).Create(appointment).Error; err != nil {
			return translateError(err)
		}

		if lab != nil {
			lab.AppointmentID = appointment.ID
			if err := tx.Create(lab).Error; err != nil {
				return translateError(err)
			}
		}
		return nil
	})
}

func (r *appointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := r.db.WithContext(ctx).
		Preload("Doctor.User").Preload("Patient").Preload("Service").
		Where("id = ?", id).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindActiveByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND status <> ? AND scheduled_at < ? AND ends_at > ?",
			doctorID, entity.AppointmentStatusCancelled, to, from).
		Order("scheduled_at ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindAll(ctx context.Context, filter entity.AppointmentFilter) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := r.db.WithContext(ctx).Preload("Doctor.User").Preload("Patient").Preload("Service")

	if filter.DoctorID != nil {
		query = query.Where("doctor_id = ?", *filter.DoctorID)
	}
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("scheduled_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("scheduled_at < ?", *filter.To)
	}

	if err := query.Order("scheduled_at DESC").Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

// FindOverdue returns PENDING/CONFIRMED appointments scheduled before the given instant, oldest first.
func (r *appointmentRepository) FindOverdue(ctx context.Context, before time.Time, limit int) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := r.db.WithContext(ctx).
		Where("status IN ? AND scheduled_at < ?",
			[]entity.AppointmentStatus{entity.AppointmentStatusPending, entity.AppointmentStatusConfirmed}, before).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// ApplyTransition updates the row only while it still holds change.From.
// Zero affected rows means another caller won the race.
func (r *appointmentRepository) ApplyTransition(ctx context.Context, change domainRepo.StatusChange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":     change.To,
			"updated_at": time.Now(),
		}
		for k, v := range change.Fields {
			updates[k] = v
		}

		result := tx.Model(&entity.Appointment{}).
			Where("id = ? AND status = ?", change.AppointmentID, change.From).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainRepo.ErrStaleState
		}

		if change.SpawnLab != nil {
			change.SpawnLab.AppointmentID = change.AppointmentID
			if err := tx.Create(change.SpawnLab).Error; err != nil {
				return translateError(err)
			}
		}
		return nil
	})
}

func (r *appointmentRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ? AND is_paid = ? AND status <> ?", id, false, entity.AppointmentStatusCancelled).
		Updates(map[string]interface{}{"is_paid": true, "paid_at": paidAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainRepo.ErrStaleState
	}
	return nil
}

func (r *appointmentRepository) UpdateLabStatus(ctx context.Context, id uuid.UUID, status entity.LabRequestStatus) error {
	return r.db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ?", id).
		Update("lab_status", status).Error
}
