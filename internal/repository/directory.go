// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"tribunal/internal/cache"
	"tribunal/internal/models"

	"gorm.io/gorm"
)

// DirectoryRepository resolves members and content records. The moderation
// domain references these tables but never owns their lifecycle.
type DirectoryRepository interface {
	GetMember(ctx context.Context, id uint) (*models.Member, error)
	SearchMembers(ctx context.Context, query string, limit, offset int) ([]models.Member, error)
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
}

type directoryRepository struct {
	db *gorm.DB
}

// NewDirectoryRepository returns a new DirectoryRepository implementation.
func NewDirectoryRepository(db *gorm.DB) DirectoryRepository {
	return &directoryRepository{db: db}
}

func (r *directoryRepository) GetMember(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	key := cache.MemberKey(id)

	err := cache.Aside(ctx, key, &member, cache.MemberTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&member, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Member", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *directoryRepository) SearchMembers(ctx context.Context, query string, limit, offset int) ([]models.Member, error) {
	var members []models.Member
	q := readDB(r.db).WithContext(ctx).Model(&models.Member{})
	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(nickname) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if err := q.Order("id ASC").Limit(limit).Offset(offset).Find(&members).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return members, nil
}

func (r *directoryRepository) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := readDB(r.db).WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *directoryRepository) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := readDB(r.db).WithContext(ctx).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}
