package db

import (
	"fmt"
	"time"

	"github.com/umairdev1/project-management-tool/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the configured store. Postgres is retried while the container
// comes up; sqlite is opened once.
func Connect(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true}
	switch driver {
	case "sqlite":
		gdb, err := gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		// one writer at a time; shared-cache memory databases lock per table
		sqlDB.SetMaxOpenConns(1)
		return gdb, nil
	case "postgres", "":
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	var gdb *gorm.DB
	var err error
	for i := 0; i < 10; i++ {
		gdb, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			sqlDB, err2 := gdb.DB()
			if err2 == nil {
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetMaxOpenConns(20)
				sqlDB.SetConnMaxLifetime(time.Hour)
				return gdb, nil
			}
			err = err2
		}
		time.Sleep(time.Duration(500+i*200) * time.Millisecond)
	}
	return nil, fmt.Errorf("open postgres: %w", err)
}

// Migrate creates or updates every table the service uses.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(models.All()...)
}
