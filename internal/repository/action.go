package repository

import (
	"context"
	"errors"
	"time"

	"tribunal/internal/cache"
	"tribunal/internal/models"

	"gorm.io/gorm"
)

// ActionFilter narrows moderation action listings. Zero values mean "no
// constraint".
type ActionFilter struct {
	ModeratorID     uint
	TargetMemberID  uint
	TargetPostID    uint
	TargetCommentID uint
	ActionType      models.ModerationActionType
	Status          models.ModerationActionStatus
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
	EffectiveAt     *time.Time
}

// ActionRepository persists moderation actions. Status moves only through
// the transition table; moderator, type, and target stay frozen.
type ActionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, action *models.ModerationAction) error
	GetByID(ctx context.Context, id uint) (*models.ModerationAction, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.ModerationAction, error)
	List(ctx context.Context, filter ActionFilter, limit, offset int) ([]models.ModerationActionSummary, int64, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, action *models.ModerationAction) error
	UpdateMutable(ctx context.Context, tx *gorm.DB, action *models.ModerationAction) error
	Delete(ctx context.Context, id uint) error
}

type actionRepository struct {
	db *gorm.DB
}

// NewActionRepository returns a new ActionRepository implementation.
func NewActionRepository(db *gorm.DB) ActionRepository {
	return &actionRepository{db: db}
}

func (r *actionRepository) Create(ctx context.Context, tx *gorm.DB, action *models.ModerationAction) error {
	db := tx
	if db == nil {
		db = r.db
	}
	if err := db.WithContext(ctx).Create(action).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *actionRepository) GetByID(ctx context.Context, id uint) (*models.ModerationAction, error) {
	var action models.ModerationAction
	key := cache.ActionKey(id)

	err := cache.Aside(ctx, key, &action, cache.ActionTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&action, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("ModerationAction", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &action, nil
}

// GetByIDForUpdate reads the action with a row lock so concurrent status
// transitions serialize on the same row.
func (r *actionRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.ModerationAction, error) {
	var action models.ModerationAction
	err := withUpdateLock(tx.WithContext(ctx)).First(&action, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("ModerationAction", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &action, nil
}

func (r *actionRepository) List(ctx context.Context, filter ActionFilter, limit, offset int) ([]models.ModerationActionSummary, int64, error) {
	var rows []models.ModerationActionSummary
	var total int64

	db := readDB(r.db).WithContext(ctx).Model(&models.ModerationAction{})
	if filter.ModeratorID != 0 {
		db = db.Where("moderator_id = ?", filter.ModeratorID)
	}
	if filter.TargetMemberID != 0 {
		db = db.Where("target_member_id = ?", filter.TargetMemberID)
	}
	if filter.TargetPostID != 0 {
		db = db.Where("target_post_id = ?", filter.TargetPostID)
	}
	if filter.TargetCommentID != 0 {
		db = db.Where("target_comment_id = ?", filter.TargetCommentID)
	}
	if filter.ActionType != "" {
		db = db.Where("action_type = ?", filter.ActionType)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.EffectiveAt != nil {
		db = db.Where("effective_from <= ? AND (effective_until IS NULL OR effective_until > ?)",
			*filter.EffectiveAt, *filter.EffectiveAt)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	err := db.
		Select("id, moderator_id, target_member_id, target_post_id, target_comment_id, action_type, status, effective_from, effective_until, created_at").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return rows, total, nil
}

// UpdateStatus writes status and effective_until for an already-locked row.
func (r *actionRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, action *models.ModerationAction) error {
	db := tx
	if db == nil {
		db = r.db
	}
	err := db.WithContext(ctx).
		Model(&models.ModerationAction{}).
		Where("id = ?", action.ID).
		Updates(map[string]interface{}{
			"status":          action.Status,
			"effective_until": action.EffectiveUntil,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateAction(ctx, action.ID)
	return nil
}

// UpdateMutable persists the freely editable columns only. A vanished row
// surfaces as NotFound so an edit losing a race with a hard delete does not
// report success.
func (r *actionRepository) UpdateMutable(ctx context.Context, tx *gorm.DB, action *models.ModerationAction) error {
	db := tx
	if db == nil {
		db = r.db
	}
	res := db.WithContext(ctx).
		Model(&models.ModerationAction{}).
		Where("id = ?", action.ID).
		Updates(map[string]interface{}{
			"action_reason":      action.ActionReason,
			"decision_narrative": action.DecisionNarrative,
			"details":            action.Details,
			"effective_until":    action.EffectiveUntil,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("ModerationAction", action.ID)
	}
	cache.InvalidateAction(ctx, action.ID)
	return nil
}

// Delete hard-deletes the action. Attached logs go with it via the FK
// cascade.
func (r *actionRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.ModerationAction{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("ModerationAction", id)
	}
	cache.InvalidateAction(ctx, id)
	return nil
}
