package database

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"requestdesk/internal/model"
)

// NewConnection opens a GORM connection pool and migrates the schema.
func NewConnection(dsn string, debug bool) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := Migrate(db); err != nil {
		log.WithError(err).Warn("failed to auto-migrate models")
	}

	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Department{},
		&model.User{},
		&model.RefreshToken{},
		&model.Venue{},
		&model.Vehicle{},
		&model.SupplyItem{},
		&model.Request{},
		&model.JobRequest{},
		&model.JobFile{},
		&model.VenueRequest{},
		&model.TransportRequest{},
		&model.SupplyRequest{},
		&model.ReturnableRequest{},
		&model.RequestItem{},
		&model.Activity{},
		&model.Notification{},
	)
}
