package repository

import (
	"context"
	"errors"

	"tribunal/internal/models"

	"gorm.io/gorm"
)

// LogRepository persists append-only moderation log entries. Rows are never
// updated except event_details through the correction path, and never
// deleted except via the action cascade.
type LogRepository interface {
	Append(ctx context.Context, tx *gorm.DB, entry *models.ModerationLog) error
	GetByID(ctx context.Context, id uint) (*models.ModerationLog, error)
	GetByEventID(ctx context.Context, eventID string) (*models.ModerationLog, error)
	ListByAction(ctx context.Context, actionID, actorMemberID uint, limit, offset int) ([]models.ModerationLog, int64, error)
	UpdateDetails(ctx context.Context, tx *gorm.DB, id uint, details string) error
}

type logRepository struct {
	db *gorm.DB
}

// NewLogRepository returns a new LogRepository implementation.
func NewLogRepository(db *gorm.DB) LogRepository {
	return &logRepository{db: db}
}

func (r *logRepository) Append(ctx context.Context, tx *gorm.DB, entry *models.ModerationLog) error {
	db := tx
	if db == nil {
		db = r.db
	}
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("log event id already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *logRepository) GetByID(ctx context.Context, id uint) (*models.ModerationLog, error) {
	var entry models.ModerationLog
	if err := readDB(r.db).WithContext(ctx).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("ModerationLog", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &entry, nil
}

func (r *logRepository) GetByEventID(ctx context.Context, eventID string) (*models.ModerationLog, error) {
	var entry models.ModerationLog
	err := readDB(r.db).WithContext(ctx).Where("event_id = ?", eventID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("ModerationLog", eventID)
		}
		return nil, models.NewInternalError(err)
	}
	return &entry, nil
}

// ListByAction pages the action's log. The action id is always part of the
// query; actorMemberID 0 means no actor constraint.
func (r *logRepository) ListByAction(ctx context.Context, actionID, actorMemberID uint, limit, offset int) ([]models.ModerationLog, int64, error) {
	var entries []models.ModerationLog
	var total int64

	db := readDB(r.db).WithContext(ctx).
		Model(&models.ModerationLog{}).
		Where("action_id = ?", actionID)
	if actorMemberID != 0 {
		db = db.Where("actor_member_id = ?", actorMemberID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	// Oldest first so the list reads as a timeline.
	err := db.Order("created_at ASC, id ASC").Limit(limit).Offset(offset).Find(&entries).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return entries, total, nil
}

// UpdateDetails overwrites event_details only. Callers append a
// details_correction entry alongside so the original mutation is visible.
func (r *logRepository) UpdateDetails(ctx context.Context, tx *gorm.DB, id uint, details string) error {
	db := tx
	if db == nil {
		db = r.db
	}
	res := db.WithContext(ctx).
		Model(&models.ModerationLog{}).
		Where("id = ?", id).
		Update("event_details", details)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("ModerationLog", id)
	}
	return nil
}
