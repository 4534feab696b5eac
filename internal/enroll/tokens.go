package enroll

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/sportscool/enroll-backend/internal/credentials"
)

const (
	// DefaultTokenTTL is the session token lifetime.
	DefaultTokenTTL = time.Hour
	// DefaultMaxTokens caps how many tokens a user may hold at once.
	DefaultMaxTokens = 3
)

// IssueToken creates a fresh session token for the user. When the user is at
// or over maxTokens active tokens, the oldest are deleted outright so that
// exactly maxTokens remain after the new one is stored.
func IssueToken(db *gorm.DB, userID int, ttl time.Duration, maxTokens int) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	value := credentials.GenerateToken()
	err := db.Transaction(func(tx *gorm.DB) error {
		var existing []Token
		if err := tx.Where("user_id = ? AND active = ?", userID, true).
			Order("expiration_time DESC").
			Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) >= maxTokens {
			for _, old := range existing[maxTokens-1:] {
				if err := tx.Delete(&Token{}, "id = ?", old.ID).Error; err != nil {
					return err
				}
			}
		}
		return tx.Create(&Token{
			UserID:         userID,
			Token:          value,
			ExpirationTime: time.Now().Add(ttl),
			Active:         true,
		}).Error
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

// CheckToken resolves a token string to the owning user id. Expired tokens
// found during lookup are deactivated on the spot. Returns 0, false when the
// caller is unauthenticated.
func CheckToken(db *gorm.DB, value string) (int, bool) {
	var token Token
	err := db.First(&token, "token = ? AND active = ?", value, true).Error
	if err != nil {
		return 0, false
	}
	if time.Now().After(token.ExpirationTime) {
		if err := db.Model(&Token{}).Where("id = ?", token.ID).Update("active", false).Error; err != nil {
			log.Printf("[enroll] failed to deactivate expired token %d: %v", token.ID, err)
		}
		return 0, false
	}
	return token.UserID, true
}

// DeactivateExpired flips expired-but-active tokens to inactive.
func DeactivateExpired(db *gorm.DB) (int64, error) {
	res := db.Model(&Token{}).
		Where("expiration_time < ? AND active = ?", time.Now(), true).
		Update("active", false)
	return res.RowsAffected, res.Error
}

// PurgeInactive deletes every inactive token regardless of age.
func PurgeInactive(db *gorm.DB) (int64, error) {
	res := db.Where("active = ?", false).Delete(&Token{})
	return res.RowsAffected, res.Error
}

// PurgeInactiveOlderThan deletes inactive tokens whose expiration passed
// longer than maxAge ago.
func PurgeInactiveOlderThan(db *gorm.DB, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	res := db.Where("active = ? AND expiration_time < ?", false, cutoff).Delete(&Token{})
	return res.RowsAffected, res.Error
}

// DeactivateAllForUser invalidates every active token the user holds.
func DeactivateAllForUser(db *gorm.DB, userID int) (int64, error) {
	res := db.Model(&Token{}).
		Where("user_id = ? AND active = ?", userID, true).
		Update("active", false)
	return res.RowsAffected, res.Error
}
