package enroll

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/sportscool/enroll-backend/internal/web"
)

// FieldErrors maps a form field to its validation message. An empty map
// means the input is valid.
type FieldErrors map[string]string

// RegistrationInput is the raw submitted registration form before
// validation.
type RegistrationInput struct {
	ChildName      string
	ChildBirthdate string
	ParentName     string
	Phone          string
	Email          string
	Comment        string
	Consent        bool
}

// Field names shared between parsing, validation and templates.
var formFields = []string{
	"child_name", "child_birthdate", "parent_name", "phone", "email", "comment", "consent",
}

// ParseInput extracts the registration fields from parsed form data.
func ParseInput(data web.FormData) *RegistrationInput {
	return &RegistrationInput{
		ChildName:      strings.TrimSpace(data.Get("child_name")),
		ChildBirthdate: strings.TrimSpace(data.Get("child_birthdate")),
		ParentName:     strings.TrimSpace(data.Get("parent_name")),
		Phone:          strings.TrimSpace(data.Get("phone")),
		Email:          strings.TrimSpace(data.Get("email")),
		Comment:        data.Get("comment"),
		Consent:        data.Bool("consent"),
	}
}

// Accepted phone layouts: +7 (999) 123-45-67 and its spaced/dashed/bare
// variants.
var phonePattern = regexp.MustCompile(`^(\+7|7|8)[\s\-]?\(?9\d{2}\)?[\s\-]?\d{3}[\s\-]?\d{2}[\s\-]?\d{2}$`)

const (
	msgRequired = "Заполните это поле"
	minAge      = 6
	maxAge      = 8
)

// Validate applies the declarative field rules and returns per-field
// messages. It never raises: every failure branch lands in the result map,
// including the phone branches the original implementation leaked as values.
func (in *RegistrationInput) Validate(now time.Time) FieldErrors {
	errs := FieldErrors{}

	if msg := validateName(in.ChildName); msg != "" {
		errs["child_name"] = msg
	}
	if msg := validateName(in.ParentName); msg != "" {
		errs["parent_name"] = msg
	}
	if msg := validateBirthdate(in.ChildBirthdate, now); msg != "" {
		errs["child_birthdate"] = msg
	}
	if msg := validatePhone(in.Phone); msg != "" {
		errs["phone"] = msg
	}
	if msg := validateEmail(in.Email); msg != "" {
		errs["email"] = msg
	}
	if !in.Consent {
		errs["consent"] = "Требуется согласие на обработку данных"
	}
	if len(in.Comment) > 200 {
		errs["comment"] = "Комментарий не может превышать 200 символов"
	}

	return errs
}

func validateName(name string) string {
	if name == "" {
		return msgRequired
	}
	for _, r := range name {
		if !isNameRune(r) {
			return "Имя должно содержать только буквы"
		}
	}
	return ""
}

// isNameRune admits Latin and Cyrillic letters (including Ёё), spaces and
// hyphens.
func isNameRune(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		return true
	case unicode.Is(unicode.Cyrillic, r):
		return true
	case r == ' ' || r == '-':
		return true
	}
	return false
}

func validateBirthdate(birthdate string, now time.Time) string {
	if birthdate == "" {
		return msgRequired
	}
	bdate, err := time.Parse("2006-01-02", birthdate)
	if err != nil {
		return "Неверный формат даты рождения. Используйте ГГГГ-ММ-ДД"
	}
	age := int(now.Sub(bdate).Hours() / 24 / 365)
	if age < minAge || age > maxAge {
		return "Возраст ребёнка должен быть от 6 до 8 лет"
	}
	return ""
}

func validatePhone(phone string) string {
	if phone == "" {
		return msgRequired
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits != 11 {
		return "Номер телефона должен содержать 11 цифр"
	}
	first := firstDigit(phone)
	if first != '7' && first != '8' {
		return "Номер должен начинаться с 7 или 8"
	}
	if !phonePattern.MatchString(phone) {
		return "Неверный формат телефона. Пример: +7 (999) 123-45-67"
	}
	return ""
}

func firstDigit(s string) rune {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return r
		}
	}
	return 0
}

func validateEmail(email string) string {
	if email == "" {
		return msgRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "Неверный формат email"
	}
	return ""
}
