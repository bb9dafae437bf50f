package repository

import (
	"context"
	"errors"

	"tribunal/internal/cache"
	"tribunal/internal/models"

	"gorm.io/gorm"
)

// RoleRepository manages administrator records and moderator grants. Grant
// rows are never deleted; revocation stamps revoked_at so history survives.
type RoleRepository interface {
	CreateAdministrator(ctx context.Context, admin *models.Administrator) error
	DeleteAdministrator(ctx context.Context, memberID uint) error
	GetAdministratorByMember(ctx context.Context, memberID uint) (*models.Administrator, error)
	ListAdministrators(ctx context.Context) ([]models.Administrator, error)
	IsAdministrator(ctx context.Context, memberID uint) (bool, error)

	CreateGrant(ctx context.Context, grant *models.ModeratorGrant) error
	GetGrant(ctx context.Context, id uint) (*models.ModeratorGrant, error)
	GetActiveGrantByMember(ctx context.Context, memberID uint) (*models.ModeratorGrant, error)
	GetActiveGrantByMemberForUpdate(ctx context.Context, tx *gorm.DB, memberID uint) (*models.ModeratorGrant, error)
	RevokeGrant(ctx context.Context, tx *gorm.DB, grant *models.ModeratorGrant) error
	ListGrantsByMember(ctx context.Context, memberID uint, limit, offset int) ([]models.ModeratorGrant, int64, error)
	ListActiveGrants(ctx context.Context, limit, offset int) ([]models.ModeratorGrant, int64, error)
	HasActiveGrant(ctx context.Context, memberID uint) (bool, error)
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository returns a new RoleRepository implementation.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) CreateAdministrator(ctx context.Context, admin *models.Administrator) error {
	if err := r.db.WithContext(ctx).Create(admin).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("member is already an administrator")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateMemberRoles(ctx, admin.MemberID)
	return nil
}

func (r *roleRepository) DeleteAdministrator(ctx context.Context, memberID uint) error {
	res := r.db.WithContext(ctx).Where("member_id = ?", memberID).Delete(&models.Administrator{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Administrator", memberID)
	}
	cache.InvalidateMemberRoles(ctx, memberID)
	return nil
}

func (r *roleRepository) GetAdministratorByMember(ctx context.Context, memberID uint) (*models.Administrator, error) {
	var admin models.Administrator
	err := readDB(r.db).WithContext(ctx).Where("member_id = ?", memberID).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Administrator", memberID)
		}
		return nil, models.NewInternalError(err)
	}
	return &admin, nil
}

func (r *roleRepository) ListAdministrators(ctx context.Context) ([]models.Administrator, error) {
	var admins []models.Administrator
	err := readDB(r.db).WithContext(ctx).
		Preload("Member").
		Order("granted_at ASC").
		Find(&admins).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return admins, nil
}

func (r *roleRepository) IsAdministrator(ctx context.Context, memberID uint) (bool, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Administrator{}).
		Where("member_id = ?", memberID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *roleRepository) CreateGrant(ctx context.Context, grant *models.ModeratorGrant) error {
	if err := r.db.WithContext(ctx).Create(grant).Error; err != nil {
		// The partial unique index on (member_id) WHERE revoked_at IS NULL
		// rejects a second active grant.
		if isUniqueConstraintError(err) {
			return models.NewConflictError("member already holds an active moderator grant")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateMemberRoles(ctx, grant.MemberID)
	return nil
}

func (r *roleRepository) GetGrant(ctx context.Context, id uint) (*models.ModeratorGrant, error) {
	var grant models.ModeratorGrant
	err := readDB(r.db).WithContext(ctx).Preload("Member").First(&grant, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("ModeratorGrant", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &grant, nil
}

func (r *roleRepository) GetActiveGrantByMember(ctx context.Context, memberID uint) (*models.ModeratorGrant, error) {
	var grant models.ModeratorGrant
	err := readDB(r.db).WithContext(ctx).
		Where("member_id = ? AND revoked_at IS NULL", memberID).
		First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("ModeratorGrant", memberID)
		}
		return nil, models.NewInternalError(err)
	}
	return &grant, nil
}

// GetActiveGrantByMemberForUpdate locks the active grant row inside tx so
// concurrent revocations serialize instead of double-writing revoked_at.
func (r *roleRepository) GetActiveGrantByMemberForUpdate(ctx context.Context, tx *gorm.DB, memberID uint) (*models.ModeratorGrant, error) {
	var grant models.ModeratorGrant
	err := withUpdateLock(tx.WithContext(ctx)).
		Where("member_id = ? AND revoked_at IS NULL", memberID).
		First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("ModeratorGrant", memberID)
		}
		return nil, models.NewInternalError(err)
	}
	return &grant, nil
}

func (r *roleRepository) RevokeGrant(ctx context.Context, tx *gorm.DB, grant *models.ModeratorGrant) error {
	db := tx
	if db == nil {
		db = r.db
	}
	res := db.WithContext(ctx).
		Model(&models.ModeratorGrant{}).
		Where("id = ? AND revoked_at IS NULL", grant.ID).
		Update("revoked_at", grant.RevokedAt)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("moderator grant is already revoked")
	}
	cache.InvalidateMemberRoles(ctx, grant.MemberID)
	return nil
}

func (r *roleRepository) ListGrantsByMember(ctx context.Context, memberID uint, limit, offset int) ([]models.ModeratorGrant, int64, error) {
	var grants []models.ModeratorGrant
	var total int64

	db := readDB(r.db).WithContext(ctx).
		Model(&models.ModeratorGrant{}).
		Where("member_id = ?", memberID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	err := db.Order("assigned_at DESC").Limit(limit).Offset(offset).Find(&grants).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return grants, total, nil
}

func (r *roleRepository) ListActiveGrants(ctx context.Context, limit, offset int) ([]models.ModeratorGrant, int64, error) {
	var grants []models.ModeratorGrant
	var total int64

	db := readDB(r.db).WithContext(ctx).
		Model(&models.ModeratorGrant{}).
		Where("revoked_at IS NULL")
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	err := db.Preload("Member").
		Order("assigned_at DESC").
		Limit(limit).Offset(offset).
		Find(&grants).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return grants, total, nil
}

func (r *roleRepository) HasActiveGrant(ctx context.Context, memberID uint) (bool, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).
		Model(&models.ModeratorGrant{}).
		Where("member_id = ? AND revoked_at IS NULL", memberID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
