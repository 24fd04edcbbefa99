package repository

import (
	"context"
	"errors"
	"time"

	"clinic-orchestrator/internal/domain/entity"
	domainRepo "clinic-orchestrator/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type doctorShiftRepository struct {
	db *gorm.DB
}

func NewDoctorShiftRepository(db *gorm.DB) domainRepo.DoctorShiftRepository {
	return &doctorShiftRepository{db: db}
}

func (r *doctorShiftRepository) Create(ctx context.Context, shift *entity.DoctorShift) error {
	return r.db.WithContext(ctx).Omit("Doctor").Create(shift).Error
}

func (r *doctorShiftRepository) FindByID(ctx context.Context, id int) (*entity.DoctorShift, error) {
	var shift entity.DoctorShift
	err := r.db.WithContext(ctx).Preload("Doctor.User").Where("id = ?", id).First(&shift).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shift, nil
}

func (r *doctorShiftRepository) FindByDoctorID(ctx context.Context, doctorID uuid.UUID) ([]entity.DoctorShift, error) {
	var shifts []entity.DoctorShift
	err := r.db.WithContext(ctx).Where("doctor_id = ?", doctorID).Order("shift_date ASC, start_time ASC").Find(&shifts).Error
	if err != nil {
		return nil, err
	}
	return shifts, nil
}

func (r *doctorShiftRepository) FindByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]entity.DoctorShift, error) {
	var shifts []entity.DoctorShift
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND shift_date = ?", doctorID, date.Format("2006-01-02")).
		Order("start_time ASC").
		Find(&shifts).Error
	if err != nil {
		return nil, err
	}
	return shifts, nil
}

func (r *doctorShiftRepository) FindAll(ctx context.Context) ([]entity.DoctorShift, error) {
	var shifts []entity.DoctorShift
	err := r.db.WithContext(ctx).Preload("Doctor.User").Order("shift_date ASC, start_time ASC").Find(&shifts).Error
	if err != nil {
		return nil, err
	}
	return shifts, nil
}

func (r *doctorShiftRepository) Update(ctx context.Context, shift *entity.DoctorShift) error {
	return r.db.WithContext(ctx).Omit("Doctor").Save(shift).Error
}

func (r *doctorShiftRepository) Delete(ctx context.Context, id int) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.DoctorShift{})
	return result.RowsAffected, result.Error
}
