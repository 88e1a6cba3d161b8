package database

import (
	"storetrack/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM and migrates
// the schema.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate auto-migrates all core models. Split out from NewConnection so
// tests can run it against a throwaway sqlite database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Permission{},
		&model.Role{},
		&model.Group{},
		&model.StorageLocation{},
		&model.StorageImage{},
		&model.Item{},
		&model.ItemImage{},
		&model.ItemStorageStock{},
		&model.CategoryColor{},
		&model.Category{},
		&model.AuditLog{},
	)
}
