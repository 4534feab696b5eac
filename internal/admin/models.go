package admin

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sportscool/enroll-backend/internal/credentials"
)

// TokenTTL is the fixed admin token lifetime.
const TokenTTL = 8 * time.Hour

var ErrAdminNotFound = errors.New("admin not found")

type Admin struct {
	ID           int    `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
	PasswordSalt string `gorm:"not null" json:"-"`

	Tokens []AdminToken `gorm:"foreignKey:AdminID" json:"-"`
}

type AdminToken struct {
	ID             int       `gorm:"primaryKey" json:"-"`
	AdminID        int       `gorm:"index;not null" json:"-"`
	Token          string    `gorm:"index;not null" json:"-"`
	ExpirationTime time.Time `gorm:"index;not null" json:"-"`
	// No column default, so an explicit Active: false survives the insert.
	Active bool `gorm:"not null" json:"-"`
}

func (Admin) TableName() string      { return "admin" }
func (AdminToken) TableName() string { return "admin_token" }

// CreateAdmin hashes the plaintext and stores a new admin row.
func CreateAdmin(db *gorm.DB, username, plainPassword string) (*Admin, error) {
	hash, salt, err := credentials.HashPassword(plainPassword)
	if err != nil {
		return nil, err
	}
	admin := &Admin{Username: username, PasswordHash: hash, PasswordSalt: salt}
	if err := db.Create(admin).Error; err != nil {
		return nil, err
	}
	return admin, nil
}

// GetByUsername looks an admin up by its unique username.
func GetByUsername(db *gorm.DB, username string) (*Admin, error) {
	var admin Admin
	if err := db.First(&admin, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}

// CheckPassword verifies the plaintext against the stored hash and salt.
func (a *Admin) CheckPassword(plain string) bool {
	return credentials.CheckPassword(plain, a.PasswordHash, a.PasswordSalt)
}

// IssueToken creates an 8-hour admin token.
func IssueToken(db *gorm.DB, adminID int) (string, error) {
	value := credentials.GenerateToken()
	token := &AdminToken{
		AdminID:        adminID,
		Token:          value,
		ExpirationTime: time.Now().Add(TokenTTL),
		Active:         true,
	}
	if err := db.Create(token).Error; err != nil {
		return "", err
	}
	return value, nil
}

// CheckToken resolves an admin token to the owning admin id. Every lookup
// first lazily deactivates whatever has expired.
func CheckToken(db *gorm.DB, value string) (int, bool) {
	if _, err := DeactivateExpired(db); err != nil {
		return 0, false
	}
	var token AdminToken
	if err := db.First(&token, "token = ? AND active = ?", value, true).Error; err != nil {
		return 0, false
	}
	return token.AdminID, true
}

// InvalidateToken deactivates the token, as on logout. Unknown tokens are a
// no-op.
func InvalidateToken(db *gorm.DB, value string) error {
	return db.Model(&AdminToken{}).
		Where("token = ? AND active = ?", value, true).
		Update("active", false).Error
}

// DeactivateExpired flips expired-but-active admin tokens to inactive.
func DeactivateExpired(db *gorm.DB) (int64, error) {
	res := db.Model(&AdminToken{}).
		Where("expiration_time < ? AND active = ?", time.Now(), true).
		Update("active", false)
	return res.RowsAffected, res.Error
}

// PurgeInactive deletes every inactive admin token.
func PurgeInactive(db *gorm.DB) (int64, error) {
	res := db.Where("active = ?", false).Delete(&AdminToken{})
	return res.RowsAffected, res.Error
}
