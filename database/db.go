package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yashrajoria/order-saga-service/models"
)

// Connect opens the Postgres connection used by the order store.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the order-subsystem schema migrations.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Order{}, &models.OrderItem{})
}
