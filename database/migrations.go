package database

import (
	"gorm.io/gorm"

	"github.com/mohitbudhwar0786/earning-website/models"
)

// Migrate creates or updates every table the service owns. On MySQL the DDL
// statements commit implicitly, so the transaction only helps on Postgres.
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(models.All()...)
	})
}
