package repository

import (
	"context"
	"errors"

	"tribunal/internal/cache"
	"tribunal/internal/models"

	"gorm.io/gorm"
)

// AppealFilter narrows appeal listings. Zero values mean "no constraint".
type AppealFilter struct {
	AppellantMemberID uint
	Status            models.AppealStatus
}

// AppealRepository persists appeals. Rationale and parent references are
// immutable after submission; only status, notes, and resolved_at move.
type AppealRepository interface {
	Create(ctx context.Context, tx *gorm.DB, appeal *models.Appeal) error
	GetByID(ctx context.Context, id uint) (*models.Appeal, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Appeal, error)
	List(ctx context.Context, filter AppealFilter, limit, offset int) ([]models.Appeal, int64, error)
	CountOpenForAction(ctx context.Context, tx *gorm.DB, appellantID, actionID uint) (int64, error)
	CountOpenForFlagReport(ctx context.Context, tx *gorm.DB, appellantID, reportID uint) (int64, error)
	UpdateResolution(ctx context.Context, tx *gorm.DB, appeal *models.Appeal) error
}

type appealRepository struct {
	db *gorm.DB
}

// NewAppealRepository returns a new AppealRepository implementation.
func NewAppealRepository(db *gorm.DB) AppealRepository {
	return &appealRepository{db: db}
}

func (r *appealRepository) Create(ctx context.Context, tx *gorm.DB, appeal *models.Appeal) error {
	db := tx
	if db == nil {
		db = r.db
	}
	if err := db.WithContext(ctx).Create(appeal).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *appealRepository) GetByID(ctx context.Context, id uint) (*models.Appeal, error) {
	var appeal models.Appeal
	key := cache.AppealKey(id)

	err := cache.Aside(ctx, key, &appeal, cache.AppealTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&appeal, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Appeal", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &appeal, nil
}

func (r *appealRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Appeal, error) {
	var appeal models.Appeal
	err := withUpdateLock(tx.WithContext(ctx)).First(&appeal, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Appeal", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &appeal, nil
}

func (r *appealRepository) List(ctx context.Context, filter AppealFilter, limit, offset int) ([]models.Appeal, int64, error) {
	var appeals []models.Appeal
	var total int64

	db := readDB(r.db).WithContext(ctx).Model(&models.Appeal{})
	if filter.AppellantMemberID != 0 {
		db = db.Where("appellant_member_id = ?", filter.AppellantMemberID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&appeals).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return appeals, total, nil
}

// CountOpenForAction counts the appellant's non-terminal appeals against one
// action. Runs inside tx so the duplicate check and insert see the same
// snapshot.
func (r *appealRepository) CountOpenForAction(ctx context.Context, tx *gorm.DB, appellantID, actionID uint) (int64, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Appeal{}).
		Where("appellant_member_id = ? AND moderation_action_id = ? AND status IN ?",
			appellantID, actionID,
			[]models.AppealStatus{models.AppealStatusPending, models.AppealStatusInReview}).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *appealRepository) CountOpenForFlagReport(ctx context.Context, tx *gorm.DB, appellantID, reportID uint) (int64, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Appeal{}).
		Where("appellant_member_id = ? AND flag_report_id = ? AND status IN ?",
			appellantID, reportID,
			[]models.AppealStatus{models.AppealStatusPending, models.AppealStatusInReview}).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// UpdateResolution writes status, resolution notes, and resolved_at for a
// row the caller already locked.
func (r *appealRepository) UpdateResolution(ctx context.Context, tx *gorm.DB, appeal *models.Appeal) error {
	db := tx
	if db == nil {
		db = r.db
	}
	err := db.WithContext(ctx).
		Model(&models.Appeal{}).
		Where("id = ?", appeal.ID).
		Updates(map[string]interface{}{
			"status":           appeal.Status,
			"resolution_notes": appeal.ResolutionNotes,
			"resolved_at":      appeal.ResolvedAt,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateAppeal(ctx, appeal.ID)
	return nil
}
