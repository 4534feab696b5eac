package enroll

import (
	"fmt"

	"gorm.io/gorm"
)

// Init creates the user-side tables if they are missing.
func Init(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &RegistrationForm{}, &Token{}); err != nil {
		return fmt.Errorf("migrate enroll tables: %w", err)
	}
	return nil
}
