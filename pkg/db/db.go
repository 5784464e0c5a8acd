package db

import (
	"log"
	"sync"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/models"
)

type DB struct {
	Conn *gorm.DB
}

var (
	instance *DB
	once     sync.Once
)

func GetInstance(dialector gorm.Dialector) *DB {
	var logger = common.GetLoggerWith(common.LoggerNameStore)
	once.Do(func() {
		conn, err := gorm.Open(dialector, &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		logger.Info("Connected to database with dialector:", zap.String("dialector", dialector.Name()))

		sqlDB, err := conn.DB()
		if err != nil {
			log.Fatal("Failed to get sql.DB handle:", err)
		}
		// sqlite allows a single writer; one connection keeps the shared
		// in-memory database alive and avoids table lock errors.
		sqlDB.SetMaxOpenConns(1)

		instance = &DB{Conn: conn}

		err = instance.Conn.AutoMigrate(&models.DailyUsage{}, &models.AlertHistory{})
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}

		logger.Info("Database migration completed")

		if err := instance.Conn.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
			log.Fatal("Failed to set sqlite journal mode", err)
		}

		if err := instance.Conn.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
			log.Fatal("Failed to set sqlite busy timeout", err)
		}
	})
	return instance
}

// UseDialector maps the configured db type to a sqlite dialector.
func UseDialector(dbType, dbPath string) gorm.Dialector {
	if dbType == "memory" {
		return UseMemorySqliteDialector()
	}
	return UseSqliteDialector(dbPath)
}

func UseSqliteDialector(dbPath string) gorm.Dialector {
	if dbPath == "" {
		dbPath = "aquapure.db"
	}
	return sqlite.Open(dbPath)
}

func UseMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open("file::memory:?cache=shared")
}
