package db

import (
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitPostgresORM opens GORM on its own connection and migrates the schema.
func InitPostgresORM(dsn string) (*gorm.DB, error) {
	return openORM(postgres.Open(dsn))
}

// WrapPostgresORM opens GORM over an existing pool, so the sqlx read
// models and the GORM stores share connections.
func WrapPostgresORM(conn *sql.DB) (*gorm.DB, error) {
	return openORM(postgres.New(postgres.Config{Conn: conn}))
}

func openORM(dialector gorm.Dialector) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := Migrate(gdb); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return gdb, nil
}
