package database

import (
	"fmt"
	"log"
	"map_survey_backend/internal/config"
	"map_survey_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitArchiveDB opens the MySQL archive that mirrors graded and adjudicated
// responses for the downstream analysis pipeline.
func InitArchiveDB(cfg *config.ArchiveConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Archive database connection established")

	err = db.AutoMigrate(
		&model.EvalRecord{},
		&model.DisagreementRecord{},
	)
	if err != nil {
		return nil, err
	}

	log.Println("Archive database migration completed")
	return db, nil
}
