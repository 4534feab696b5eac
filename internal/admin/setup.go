package admin

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
)

// Init creates the admin tables if they are missing.
func Init(db *gorm.DB) error {
	if err := db.AutoMigrate(&Admin{}, &AdminToken{}); err != nil {
		return fmt.Errorf("migrate admin tables: %w", err)
	}
	return nil
}

// Seed creates the default admin account once if it is absent. Safe to call
// on every startup.
func Seed(db *gorm.DB, username, password string) error {
	_, err := GetByUsername(db, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrAdminNotFound) {
		return err
	}
	if _, err := CreateAdmin(db, username, password); err != nil {
		return err
	}
	log.Printf("[admin] admin user %q created", username)
	return nil
}
