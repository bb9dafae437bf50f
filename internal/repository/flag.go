package repository

import (
	"context"
	"errors"
	"time"

	"tribunal/internal/cache"
	"tribunal/internal/models"

	"gorm.io/gorm"
)

// FlagFilter narrows flag-report listings. Zero values mean "no constraint".
type FlagFilter struct {
	ReporterID    uint
	PostID        uint
	CommentID     uint
	Reason        models.FlagReason
	Status        models.FlagReportStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// FlagRepository persists flag reports. Reporter, content ref, reason, and
// details freeze at submission; triage moves status and the review stamp.
type FlagRepository interface {
	Create(ctx context.Context, report *models.FlagReport) error
	GetByID(ctx context.Context, id uint) (*models.FlagReport, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.FlagReport, error)
	List(ctx context.Context, filter FlagFilter, limit, offset int) ([]models.FlagReport, int64, error)
	UpdateTriage(ctx context.Context, tx *gorm.DB, report *models.FlagReport) error
}

type flagRepository struct {
	db *gorm.DB
}

// NewFlagRepository returns a new FlagRepository implementation.
func NewFlagRepository(db *gorm.DB) FlagRepository {
	return &flagRepository{db: db}
}

func (r *flagRepository) Create(ctx context.Context, report *models.FlagReport) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *flagRepository) GetByID(ctx context.Context, id uint) (*models.FlagReport, error) {
	var report models.FlagReport
	key := cache.FlagReportKey(id)

	err := cache.Aside(ctx, key, &report, cache.FlagReportTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&report, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("FlagReport", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *flagRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.FlagReport, error) {
	var report models.FlagReport
	err := withUpdateLock(tx.WithContext(ctx)).First(&report, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("FlagReport", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &report, nil
}

func (r *flagRepository) List(ctx context.Context, filter FlagFilter, limit, offset int) ([]models.FlagReport, int64, error) {
	var reports []models.FlagReport
	var total int64

	db := readDB(r.db).WithContext(ctx).Model(&models.FlagReport{})
	if filter.ReporterID != 0 {
		db = db.Where("reporter_id = ?", filter.ReporterID)
	}
	if filter.PostID != 0 {
		db = db.Where("post_id = ?", filter.PostID)
	}
	if filter.CommentID != 0 {
		db = db.Where("comment_id = ?", filter.CommentID)
	}
	if filter.Reason != "" {
		db = db.Where("reason = ?", filter.Reason)
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

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reports).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return reports, total, nil
}

// UpdateTriage writes status and the review stamp for a row the caller
// already locked.
func (r *flagRepository) UpdateTriage(ctx context.Context, tx *gorm.DB, report *models.FlagReport) error {
	db := tx
	if db == nil {
		db = r.db
	}
	err := db.WithContext(ctx).
		Model(&models.FlagReport{}).
		Where("id = ?", report.ID).
		Updates(map[string]interface{}{
			"status":                report.Status,
			"details":               report.Details,
			"reviewed_by_member_id": report.ReviewedByMemberID,
			"reviewed_at":           report.ReviewedAt,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateFlagReport(ctx, report.ID)
	return nil
}
