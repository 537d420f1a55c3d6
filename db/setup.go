package db

import (
	"github.com/signalhub-dev/signalhub/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// Migrate creates any missing tables. Safe to run on every boot.
func Migrate(conn *gorm.DB) error {
	tables := []interface{}{
		&models.User{},
		&models.Project{},
		&models.ApiKey{},
		&models.Channel{},
		&models.Event{},
		&models.NotificationRule{},
		&models.Notification{},
	}

	migrator := conn.Migrator()

	for _, table := range tables {
		if !migrator.HasTable(table) {
			if err := conn.AutoMigrate(table); err != nil {
				return err
			}
		}
	}

	return nil
}
