package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the local storage database. driver is "sqlite" or "mysql".
func Connect(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		if dsn == "" {
			dsn = "pos-console.db"
		}
		dialector = sqlite.Open(dsn)
	case "mysql":
		if dsn == "" {
			return nil, fmt.Errorf("DB_DSN is required for the mysql storage driver")
		}
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	var (
		db  *gorm.DB
		err error
	)
	// Wait for the database to be ready
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			break
		}
		log.Printf("Failed to open %s storage. Retrying in 2 seconds... (%d/5)", driver, i+1)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage after 5 attempts: %w", driver, err)
	}

	log.Printf("✅ Connected to %s storage", driver)
	return db, nil
}
