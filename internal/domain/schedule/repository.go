package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mashdotdev/taskflow/internal/infrastructure/persistence/postgres/connection"
	"gorm.io/gorm"
)

// Repository defines persistence for recurring task schedules
type Repository interface {
	Create(ctx context.Context, schedule *RecurringTaskSchedule) error
	FindByParentTask(ctx context.Context, parentTaskID uuid.UUID) (*RecurringTaskSchedule, error)
	FindDue(ctx context.Context, now time.Time) ([]RecurringTaskSchedule, error)
	CountDue(ctx context.Context, now time.Time) (int64, error)
	Update(ctx context.Context, schedule *RecurringTaskSchedule) error
	RemoveByParentTask(ctx context.Context, parentTaskID uuid.UUID) error
}

type scheduleRepository struct {
	db *connection.Database
}

func NewRepository(db *connection.Database) Repository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *RecurringTaskSchedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *scheduleRepository) FindByParentTask(ctx context.Context, parentTaskID uuid.UUID) (*RecurringTaskSchedule, error) {
	var schedule RecurringTaskSchedule
	result := r.db.WithContext(ctx).First(&schedule, "parent_task_id = ?", parentTaskID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, result.Error
	}
	return &schedule, nil
}

func (r *scheduleRepository) FindDue(ctx context.Context, now time.Time) ([]RecurringTaskSchedule, error) {
	var due []RecurringTaskSchedule
	err := r.db.WithContext(ctx).
		Where("next_execution_time <= ?", now).
		Where("is_active = ?", true).
		Find(&due).Error
	if err != nil {
		return nil, err
	}
	return due, nil
}

func (r *scheduleRepository) CountDue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&RecurringTaskSchedule{}).
		Where("next_execution_time <= ?", now).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}

func (r *scheduleRepository) Update(ctx context.Context, schedule *RecurringTaskSchedule) error {
	result := r.db.WithContext(ctx).Save(schedule)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// RemoveByParentTask deactivates then deletes the schedule in one
// transaction, as part of the parent task's delete cascade. A task without a
// schedule is not an error.
func (r *scheduleRepository) RemoveByParentTask(ctx context.Context, parentTaskID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&RecurringTaskSchedule{}).
			Where("parent_task_id = ?", parentTaskID).
			Update("is_active", false)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		return tx.Delete(&RecurringTaskSchedule{}, "parent_task_id = ?", parentTaskID).Error
	})
}
