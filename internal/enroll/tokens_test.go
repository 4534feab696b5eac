package enroll

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&User{}, &RegistrationForm{}, &Token{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreateUser(t *testing.T, db *gorm.DB, login string) *User {
	t.Helper()
	user, err := CreateUser(db, login, "secret")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func countActiveTokens(t *testing.T, db *gorm.DB, userID int) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&Token{}).Where("user_id = ? AND active = ?", userID, true).Count(&n).Error; err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	return n
}

func TestIssueTokenResolvesBack(t *testing.T) {
	db := newTestDB(t)
	user := mustCreateUser(t, db, "alice01")

	value, err := IssueToken(db, user.ID, time.Hour, 3)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	gotID, ok := CheckToken(db, value)
	if !ok || gotID != user.ID {
		t.Errorf("CheckToken = (%d, %v), want (%d, true)", gotID, ok, user.ID)
	}
}

func TestIssueTokenCapsActiveTokens(t *testing.T) {
	db := newTestDB(t)
	user := mustCreateUser(t, db, "bob01")

	values := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		v, err := IssueToken(db, user.ID, time.Hour, 3)
		if err != nil {
			t.Fatalf("issue #%d: %v", i, err)
		}
		values = append(values, v)
	}

	if n := countActiveTokens(t, db, user.ID); n != 3 {
		t.Fatalf("active tokens after 4 issues = %d, want 3", n)
	}

	// Tokens are issued with the same TTL, so the one displaced is one of the
	// earlier ones; the newest must always survive.
	if _, ok := CheckToken(db, values[3]); !ok {
		t.Error("newest token must remain valid")
	}
}

func TestInactiveTokenSurvivesInsert(t *testing.T) {
	db := newTestDB(t)
	user := mustCreateUser(t, db, "zoe01")

	inactive := Token{
		UserID:         user.ID,
		Token:          "revoked",
		ExpirationTime: time.Now().Add(time.Hour),
		Active:         false,
	}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	var reloaded Token
	if err := db.First(&reloaded, "token = ?", "revoked").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Active {
		t.Error("token inserted with Active: false must be stored inactive")
	}
	if _, ok := CheckToken(db, "revoked"); ok {
		t.Error("an inactive token must not authenticate")
	}
}

func TestCheckTokenUnknown(t *testing.T) {
	db := newTestDB(t)
	if id, ok := CheckToken(db, "no-such-token"); ok || id != 0 {
		t.Errorf("CheckToken on unknown value = (%d, %v), want (0, false)", id, ok)
	}
}

func TestCheckTokenExpiredDeactivates(t *testing.T) {
	db := newTestDB(t)
	user := mustCreateUser(t, db, "carol01")

	expired := Token{
		UserID:         user.ID,
		Token:          "stale-token",
		ExpirationTime: time.Now().Add(-time.Minute),
		Active:         true,
	}
	if err := db.Create(&expired).Error; err != nil {
		t.Fatalf("seed token: %v", err)
	}

	if _, ok := CheckToken(db, "stale-token"); ok {
		t.Fatal("expired token must not authenticate")
	}

	var reloaded Token
	if err := db.First(&reloaded, "token = ?", "stale-token").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Active {
		t.Error("expired token should have been deactivated on lookup")
	}
}

func TestDeactivateAndPurge(t *testing.T) {
	db := newTestDB(t)
	user := mustCreateUser(t, db, "dave01")

	now := time.Now()
	seed := []Token{
		{UserID: user.ID, Token: "live", ExpirationTime: now.Add(time.Hour), Active: true},
		{UserID: user.ID, Token: "expired", ExpirationTime: now.Add(-time.Minute), Active: true},
		{UserID: user.ID, Token: "dead-old", ExpirationTime: now.Add(-48 * time.Hour), Active: false},
		{UserID: user.ID, Token: "dead-new", ExpirationTime: now.Add(-time.Minute), Active: false},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	n, err := DeactivateExpired(db)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if n != 1 {
		t.Errorf("DeactivateExpired = %d, want 1", n)
	}

	n, err = PurgeInactiveOlderThan(db, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge older: %v", err)
	}
	if n != 1 {
		t.Errorf("PurgeInactiveOlderThan = %d, want 1 (only dead-old)", n)
	}

	n, err = PurgeInactive(db)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 2 {
		t.Errorf("PurgeInactive = %d, want 2 (dead-new plus the freshly deactivated)", n)
	}

	if got := countActiveTokens(t, db, user.ID); got != 1 {
		t.Errorf("remaining active tokens = %d, want 1", got)
	}
}

func TestDeactivateAllForUser(t *testing.T) {
	db := newTestDB(t)
	user := mustCreateUser(t, db, "erin01")
	other := mustCreateUser(t, db, "frank01")

	for _, id := range []int{user.ID, user.ID, other.ID} {
		if _, err := IssueToken(db, id, time.Hour, 3); err != nil {
			t.Fatalf("issue: %v", err)
		}
	}

	n, err := DeactivateAllForUser(db, user.ID)
	if err != nil {
		t.Fatalf("deactivate all: %v", err)
	}
	if n != 2 {
		t.Errorf("DeactivateAllForUser = %d, want 2", n)
	}
	if got := countActiveTokens(t, db, other.ID); got != 1 {
		t.Errorf("other user's tokens must be untouched, active = %d", got)
	}
}
