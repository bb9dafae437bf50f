package database

import "tribunal/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Member{},
		&models.Post{},
		&models.Comment{},
		&models.Administrator{},
		&models.ModeratorGrant{},
		&models.ModerationAction{},
		&models.ModerationLog{},
		&models.Appeal{},
		&models.FlagReport{},
	}
}
