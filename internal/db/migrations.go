package db

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	models "seaborne/voyagedesk/internal/models/gorm"
)

// Migrate brings the schema up to date. Tests run the same migrations
// against sqlite.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20261001_create_vessel_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Vessel{}, &models.User{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&models.User{}, &models.Vessel{})
			},
		},
		{
			ID: "20261001_create_voyage_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Voyage{}, &models.VoyageReport{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&models.VoyageReport{}, &models.Voyage{})
			},
		},
		{
			ID: "20261012_unique_report_sequence",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_voyage_reports_vessel_sequence ON voyage_reports (vessel_id, sequence)").Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP INDEX IF EXISTS idx_voyage_reports_vessel_sequence").Error
			},
		},
	})
	return m.Migrate()
}
