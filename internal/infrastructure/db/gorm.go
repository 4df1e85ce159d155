package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// OpenGorm connects with the named driver ("mysql" or "postgres").
func OpenGorm(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case DriverMySQL, "":
		return OpenGormWithDialector(mysql.Open(dsn))
	case DriverPostgres:
		return OpenGormWithDialector(postgres.Open(dsn))
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
}

// OpenGormWithDialector applies the pool settings, then pings once.
// TranslateError is on so unique violations surface as gorm.ErrDuplicatedKey.
func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Warn),
		TranslateError:       true,
		DisableAutomaticPing: true,
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	log.Println("gorm: connected")
	return db, nil
}
