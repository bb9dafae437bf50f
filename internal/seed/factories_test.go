package seed

import (
	"testing"

	"tribunal/internal/models"
	"tribunal/internal/validation"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Member{},
		&models.Post{},
		&models.Comment{},
		&models.Administrator{},
		&models.ModeratorGrant{},
		&models.ModerationAction{},
		&models.ModerationLog{},
		&models.FlagReport{},
		&models.Appeal{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestFactory_NicknamesAreValid(t *testing.T) {
	f := NewFactory(nil)
	for i := 1; i <= 25; i++ {
		nickname := f.nickname(i)
		if err := validation.ValidateNickname(nickname); err != nil {
			t.Fatalf("generated nickname %q is invalid: %v", nickname, err)
		}
	}
}

func TestFactory_CreateActionWritesOpeningLog(t *testing.T) {
	db := setupSeedDB(t)
	f := NewFactory(db)

	member, err := f.CreateMember(1)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	admin, err := f.CreateAdministrator(member)
	if err != nil {
		t.Fatalf("create administrator: %v", err)
	}
	target, err := f.CreateMember(2)
	if err != nil {
		t.Fatalf("create target: %v", err)
	}
	grant, err := f.CreateGrant(member, admin)
	if err != nil {
		t.Fatalf("create grant: %v", err)
	}

	action, err := f.CreateAction(grant, models.ActionTypeWarn, func(a *models.ModerationAction) {
		a.TargetMemberID = &target.ID
	})
	if err != nil {
		t.Fatalf("create action: %v", err)
	}

	var entries []models.ModerationLog
	if err := db.Where("action_id = ?", action.ID).Find(&entries).Error; err != nil {
		t.Fatalf("load log entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one opening log entry, got %d", len(entries))
	}
	if entries[0].EventType != models.LogEventActionTaken {
		t.Fatalf("unexpected opening event type %q", entries[0].EventType)
	}
	if entries[0].EventID == "" {
		t.Fatal("opening entry is missing its event ID")
	}
}

func TestSeed_SmallRun(t *testing.T) {
	db := setupSeedDB(t)

	err := Seed(db, Options{NumMembers: 12, NumPosts: 8, NumActions: 6, NumFlags: 5})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	var actionCount, logCount int64
	if err := db.Model(&models.ModerationAction{}).Count(&actionCount).Error; err != nil {
		t.Fatalf("count actions: %v", err)
	}
	if err := db.Model(&models.ModerationLog{}).Count(&logCount).Error; err != nil {
		t.Fatalf("count logs: %v", err)
	}
	if actionCount != 6 {
		t.Fatalf("expected 6 actions, got %d", actionCount)
	}
	if logCount < actionCount {
		t.Fatalf("every action should carry an opening log entry: actions=%d, logs=%d", actionCount, logCount)
	}
}
