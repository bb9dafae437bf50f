// Package bootstrap wires shared runtime dependencies for the command-line
// entry points.
package bootstrap

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tribunal/internal/cache"
	"tribunal/internal/config"
	"tribunal/internal/database"
	"tribunal/internal/models"
	"tribunal/internal/seed"
	"tribunal/internal/validation"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedDemoData bool
}

// InitRuntime connects to DB and Redis and optionally bootstraps the
// development root administrator.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis may be nil if unreachable; callers degrade gracefully.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevRootAdministrator(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development root administrator: %w", err)
	}

	if opts.SeedDemoData {
		if err := seed.Seed(db, seed.Options{NumMembers: 25, NumPosts: 40, NumActions: 15, NumFlags: 10}); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// ensureDevRootAdministrator guarantees member ID 1 exists and holds the
// administrator role in development. Every privileged flow (moderator
// grants, appeal resolution, hard deletes) needs at least one administrator
// to exist.
func ensureDevRootAdministrator(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	nickname := strings.TrimSpace(cfg.DevRootNickname)
	if nickname == "" {
		nickname = "board_keeper"
	}
	if err := validation.ValidateNickname(nickname); err != nil {
		return fmt.Errorf("invalid DEV_ROOT_NICKNAME: %w", err)
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		email = "keeper@tribunal.local"
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		var root models.Member
		findErr := tx.First(&root, 1).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			root = models.Member{
				ID:       1,
				Nickname: nickname,
				Email:    email,
				Status:   models.MemberStatusActive,
			}
			if err := tx.Create(&root).Error; err != nil {
				return err
			}
		case findErr != nil:
			return findErr
		}

		var admin models.Administrator
		adminErr := tx.Where("member_id = ?", root.ID).First(&admin).Error
		if errors.Is(adminErr, gorm.ErrRecordNotFound) {
			admin = models.Administrator{MemberID: root.ID, GrantedAt: time.Now().UTC()}
			if err := tx.Create(&admin).Error; err != nil {
				return err
			}
		} else if adminErr != nil {
			return adminErr
		}

		// Ensure the members ID sequence is not behind explicit ID insertion.
		// This is PostgreSQL-specific.
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec(`
				SELECT setval(
					pg_get_serial_sequence('members', 'id'),
					GREATEST((SELECT COALESCE(MAX(id), 1) FROM members), 1),
					true
				)
			`).Error; err != nil {
				return fmt.Errorf("failed to reset members sequence: %w", err)
			}
		}

		return nil
	}); err != nil {
		return err
	}

	log.Printf("development root administrator bootstrap ensured for member ID 1 (%s)", email)
	return nil
}
