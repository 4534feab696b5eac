package enroll

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sportscool/enroll-backend/internal/credentials"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID           int    `gorm:"primaryKey" json:"id"`
	Login        string `gorm:"uniqueIndex;not null" json:"login"`
	PasswordHash string `gorm:"not null" json:"-"`
	PasswordSalt string `gorm:"not null" json:"-"`

	Registration *RegistrationForm `gorm:"foreignKey:UserID" json:"registration,omitempty"`
}

type RegistrationForm struct {
	ID             int     `gorm:"primaryKey" json:"id"`
	ChildName      string  `gorm:"not null" json:"child_name"`
	ChildBirthdate string  `gorm:"not null" json:"child_birthdate"`
	ParentName     string  `gorm:"not null" json:"parent_name"`
	Phone          string  `gorm:"not null" json:"phone"`
	Email          string  `gorm:"not null" json:"email"`
	Comment        *string `gorm:"size:200" json:"comment,omitempty"`
	Consent        bool    `gorm:"not null" json:"consent"`
	UserID         int     `gorm:"index;not null" json:"user_id"`
}

type Token struct {
	ID             int       `gorm:"primaryKey" json:"-"`
	UserID         int       `gorm:"index;not null" json:"-"`
	Token          string    `gorm:"index;not null" json:"-"`
	ExpirationTime time.Time `gorm:"index;not null" json:"-"`
	// No column default: a default tag would make gorm drop an explicit
	// Active: false on insert. IssueToken always sets the field.
	Active bool `gorm:"not null" json:"-"`
}

func (User) TableName() string             { return "user" }
func (RegistrationForm) TableName() string { return "registration_form" }
func (Token) TableName() string            { return "token" }

// CreateUser hashes the plaintext and stores a new user row.
func CreateUser(db *gorm.DB, login, plainPassword string) (*User, error) {
	hash, salt, err := credentials.HashPassword(plainPassword)
	if err != nil {
		return nil, err
	}
	user := &User{Login: login, PasswordHash: hash, PasswordSalt: salt}
	if err := db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByLogin looks a user up by its unique login.
func GetUserByLogin(db *gorm.DB, login string) (*User, error) {
	var user User
	if err := db.First(&user, "login = ?", login).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUser looks a user up by id.
func GetUser(db *gorm.DB, id int) (*User, error) {
	var user User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CheckPassword verifies the plaintext against the stored hash and salt.
func (u *User) CheckPassword(plain string) bool {
	return credentials.CheckPassword(plain, u.PasswordHash, u.PasswordSalt)
}

// DeleteUser removes the user together with its registration form and
// tokens, in one transaction.
func DeleteUser(db *gorm.DB, userID int) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&RegistrationForm{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&Token{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&User{}, "id = ?", userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// CreateRegistration stores the validated form data for a freshly created
// user.
func CreateRegistration(db *gorm.DB, input *RegistrationInput, userID int) (*RegistrationForm, error) {
	form := input.toForm(userID)
	if err := db.Create(form).Error; err != nil {
		return nil, err
	}
	return form, nil
}

// GetRegistrationByUser returns the user's registration form, or nil when it
// has none.
func GetRegistrationByUser(db *gorm.DB, userID int) (*RegistrationForm, error) {
	var form RegistrationForm
	err := db.First(&form, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// Update overwrites the form's fields with freshly validated input.
func (f *RegistrationForm) Update(db *gorm.DB, input *RegistrationInput) error {
	updated := input.toForm(f.UserID)
	updated.ID = f.ID
	if err := db.Save(updated).Error; err != nil {
		return err
	}
	*f = *updated
	return nil
}

func (in *RegistrationInput) toForm(userID int) *RegistrationForm {
	var comment *string
	if in.Comment != "" {
		c := in.Comment
		comment = &c
	}
	return &RegistrationForm{
		ChildName:      in.ChildName,
		ChildBirthdate: in.ChildBirthdate,
		ParentName:     in.ParentName,
		Phone:          in.Phone,
		Email:          in.Email,
		Comment:        comment,
		Consent:        in.Consent,
		UserID:         userID,
	}
}
